package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/contract"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/embedding"
	"peoples-bill-be/pkg/region"
	"peoples-bill-be/pkg/votes"

	"github.com/google/uuid"
)

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func findAll[T any](rows []*T, specs []specification.Specification, cols func(*T) columns) ([]*T, error) {
	p, err := compile(specs)
	if err != nil {
		return nil, err
	}
	matched := run(p, rows, cols)
	out := make([]*T, len(matched))
	for i, r := range matched {
		out[i] = copyOf(r)
	}
	return out, nil
}

func clusterColumn(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// submissions

type submissionRepository struct {
	uow *UnitOfWork
}

func submissionColumns(s *entity.Submission) columns {
	return columns{
		"id":                 s.Id,
		"status":             string(s.Status),
		"region":             s.Region,
		"cluster_id":         clusterColumn(s.ClusterId),
		"created_at":         s.CreatedAt,
		"updated_at":         s.UpdatedAt,
		"normalized_content": s.NormalizedContent,
		"embedding_model":    s.EmbeddingModel,
	}
}

func (r *submissionRepository) Create(ctx context.Context, submission *entity.Submission) error {
	return r.uow.do(ctx, func(t *tables) error {
		if submission.Id == uuid.Nil {
			submission.Id = uuid.New()
		}
		now := r.uow.store.tick()
		if submission.CreatedAt.IsZero() {
			submission.CreatedAt = now
		}
		submission.UpdatedAt = now
		t.submissions = append(t.submissions, copyOf(submission))
		return nil
	})
}

func (r *submissionRepository) Update(ctx context.Context, submission *entity.Submission) error {
	return r.uow.do(ctx, func(t *tables) error {
		for i, row := range t.submissions {
			if row.Id == submission.Id {
				submission.UpdatedAt = r.uow.store.tick()
				t.submissions[i] = copyOf(submission)
				return nil
			}
		}
		return fmt.Errorf("submission %s does not exist", submission.Id)
	})
}

func (r *submissionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error) {
	var out *entity.Submission
	err := r.uow.do(ctx, func(t *tables) error {
		rows, err := findAll(t.submissions, append(specs, specification.Pagination{Limit: 1}), submissionColumns)
		if err == nil && len(rows) > 0 {
			out = rows[0]
		}
		return err
	})
	return out, err
}

func (r *submissionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error) {
	var out []*entity.Submission
	err := r.uow.do(ctx, func(t *tables) error {
		var err error
		out, err = findAll(t.submissions, specs, submissionColumns)
		return err
	})
	return out, err
}

func (r *submissionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.FindAll(ctx, specs...)
	return int64(len(rows)), err
}

func (r *submissionRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, vec []float32, model string) error {
	return r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.submissions {
			if row.Id == id {
				row.Embedding = append([]float32(nil), vec...)
				row.EmbeddingModel = model
				return nil
			}
		}
		return nil
	})
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.SubmissionStatus, reviewedAt time.Time) error {
	return r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.submissions {
			if row.Id == id {
				at := reviewedAt
				row.Status = status
				row.ReviewedAt = &at
				row.UpdatedAt = r.uow.store.tick()
				return nil
			}
		}
		return fmt.Errorf("submission %s does not exist", id)
	})
}

func (r *submissionRepository) ClearClusters(ctx context.Context) error {
	return r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.submissions {
			row.ClusterId = nil
		}
		return nil
	})
}

func (r *submissionRepository) AssignCluster(ctx context.Context, clusterID uuid.UUID, ids []uuid.UUID) error {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.submissions {
			if _, ok := set[row.Id]; ok {
				cid := clusterID
				row.ClusterId = &cid
			}
		}
		return nil
	})
}

func (r *submissionRepository) CountByRegion(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.submissions {
			out[row.Region]++
		}
		return nil
	})
	return out, err
}

func (r *submissionRepository) CountDaily(ctx context.Context, since time.Time) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.submissions {
			if row.CreatedAt.Before(since) {
				continue
			}
			out[row.CreatedAt.UTC().Format(time.DateOnly)]++
		}
		return nil
	})
	return out, err
}

// clusters

type clusterRepository struct {
	uow *UnitOfWork
}

func clusterColumns(c *entity.Cluster) columns {
	return columns{
		"id":           c.Id,
		"status":       string(c.Status),
		"label":        c.Label,
		"member_count": c.MemberCount,
		"cohesion":     c.Cohesion,
		"created_at":   c.CreatedAt,
		"updated_at":   c.UpdatedAt,
	}
}

func (r *clusterRepository) Create(ctx context.Context, cluster *entity.Cluster) error {
	return r.uow.do(ctx, func(t *tables) error {
		if cluster.Id == uuid.Nil {
			cluster.Id = uuid.New()
		}
		now := r.uow.store.tick()
		cluster.CreatedAt, cluster.UpdatedAt = now, now
		t.clusters = append(t.clusters, copyOf(cluster))
		return nil
	})
}

func (r *clusterRepository) Update(ctx context.Context, cluster *entity.Cluster) error {
	return r.uow.do(ctx, func(t *tables) error {
		for i, row := range t.clusters {
			if row.Id == cluster.Id {
				cluster.UpdatedAt = r.uow.store.tick()
				t.clusters[i] = copyOf(cluster)
				return nil
			}
		}
		return fmt.Errorf("cluster %s does not exist", cluster.Id)
	})
}

func (r *clusterRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Cluster, error) {
	rows, err := r.FindAll(ctx, append(specs, specification.Pagination{Limit: 1})...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *clusterRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Cluster, error) {
	var out []*entity.Cluster
	err := r.uow.do(ctx, func(t *tables) error {
		var err error
		out, err = findAll(t.clusters, specs, clusterColumns)
		return err
	})
	return out, err
}

func (r *clusterRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.FindAll(ctx, specs...)
	return int64(len(rows)), err
}

func (r *clusterRepository) Retire(ctx context.Context, ids []uuid.UUID) error {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.clusters {
			if _, ok := set[row.Id]; ok {
				row.Status = entity.ClusterStatusRetired
				row.MemberCount = 0
			}
		}
		return nil
	})
}

func (r *clusterRepository) NearestActive(ctx context.Context, vec []float32, model, language string, limit int) ([]*contract.ScoredCluster, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []*contract.ScoredCluster
	err := r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.clusters {
			if row.Status != entity.ClusterStatusActive || row.EmbeddingModel != model || row.Language != language {
				continue
			}
			out = append(out, &contract.ScoredCluster{
				Cluster:    copyOf(row),
				Similarity: embedding.Cosine(vec, row.Centroid),
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Cluster.MemberCount != b.Cluster.MemberCount {
			return a.Cluster.MemberCount > b.Cluster.MemberCount
		}
		return compareValues(a.Cluster.Id, b.Cluster.Id) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// clauses

type billClauseRepository struct {
	uow *UnitOfWork
}

func clauseColumns(c *entity.BillClause) columns {
	return columns{
		"id":               c.Id,
		"status":           string(c.Status),
		"cluster_id":       c.ClusterId,
		"section_number":   c.SectionNumber,
		"approval_rate":    c.ApprovalRate,
		"submission_count": c.SubmissionCount,
		"created_at":       c.CreatedAt,
		"updated_at":       c.UpdatedAt,
	}
}

func (r *billClauseRepository) Create(ctx context.Context, clause *entity.BillClause) error {
	return r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.clauses {
			if row.SectionNumber == clause.SectionNumber {
				return fmt.Errorf("section %d already allocated", clause.SectionNumber)
			}
			if row.ClusterId == clause.ClusterId {
				return fmt.Errorf("cluster %s already has a clause", clause.ClusterId)
			}
		}
		if clause.Id == uuid.Nil {
			clause.Id = uuid.New()
		}
		now := r.uow.store.tick()
		clause.CreatedAt, clause.UpdatedAt = now, now
		t.clauses = append(t.clauses, copyOf(clause))
		return nil
	})
}

func (r *billClauseRepository) Update(ctx context.Context, clause *entity.BillClause) error {
	return r.uow.do(ctx, func(t *tables) error {
		for i, row := range t.clauses {
			if row.Id == clause.Id {
				clause.UpdatedAt = r.uow.store.tick()
				t.clauses[i] = copyOf(clause)
				return nil
			}
		}
		return fmt.Errorf("clause %s does not exist", clause.Id)
	})
}

func (r *billClauseRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BillClause, error) {
	rows, err := r.FindAll(ctx, append(specs, specification.Pagination{Limit: 1})...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *billClauseRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BillClause, error) {
	var out []*entity.BillClause
	err := r.uow.do(ctx, func(t *tables) error {
		var err error
		out, err = findAll(t.clauses, specs, clauseColumns)
		return err
	})
	return out, err
}

func (r *billClauseRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.FindAll(ctx, specs...)
	return int64(len(rows)), err
}

func (r *billClauseRepository) NextSectionNumber(ctx context.Context) (int, error) {
	max := 0
	err := r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.clauses {
			if row.SectionNumber > max {
				max = row.SectionNumber
			}
		}
		return nil
	})
	return max + 1, err
}

// votes

type voteRepository struct {
	uow *UnitOfWork
}

func (r *voteRepository) Create(ctx context.Context, vote *entity.Vote) error {
	return r.uow.do(ctx, func(t *tables) error {
		if vote.VoterHash != nil {
			for _, row := range t.votes {
				if row.ClauseId == vote.ClauseId && row.VoterHash != nil && *row.VoterHash == *vote.VoterHash {
					return &apperror.DuplicateVoteError{ClauseID: vote.ClauseId}
				}
			}
		}
		if vote.Id == uuid.Nil {
			vote.Id = uuid.New()
		}
		vote.CreatedAt = r.uow.store.tick()
		t.votes = append(t.votes, copyOf(vote))
		return nil
	})
}

func (r *voteRepository) tally(ctx context.Context, keep func(*entity.Vote) bool) (contract.VoteTally, error) {
	var out contract.VoteTally
	err := r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.votes {
			if !keep(row) {
				continue
			}
			switch row.Kind {
			case votes.Approve:
				out.Approvals++
			case votes.Reject:
				out.Rejections++
			}
		}
		return nil
	})
	return out, err
}

func (r *voteRepository) TallyByClause(ctx context.Context, clauseID uuid.UUID) (contract.VoteTally, error) {
	return r.tally(ctx, func(v *entity.Vote) bool { return v.ClauseId == clauseID })
}

func (r *voteRepository) TallyAll(ctx context.Context) (contract.VoteTally, error) {
	return r.tally(ctx, func(*entity.Vote) bool { return true })
}

// runs

type clusteringRunRepository struct {
	uow *UnitOfWork
}

func runColumns(r *entity.ClusteringRun) columns {
	return columns{
		"id":         r.Id,
		"status":     string(r.Status),
		"started_at": r.StartedAt,
	}
}

func (r *clusteringRunRepository) Create(ctx context.Context, run *entity.ClusteringRun) error {
	return r.uow.do(ctx, func(t *tables) error {
		if run.Id == uuid.Nil {
			run.Id = uuid.New()
		}
		if run.StartedAt.IsZero() {
			run.StartedAt = r.uow.store.tick()
		}
		t.runs = append(t.runs, copyOf(run))
		return nil
	})
}

func (r *clusteringRunRepository) Update(ctx context.Context, run *entity.ClusteringRun) error {
	return r.uow.do(ctx, func(t *tables) error {
		for i, row := range t.runs {
			if row.Id == run.Id {
				t.runs[i] = copyOf(run)
				return nil
			}
		}
		return fmt.Errorf("clustering run %s does not exist", run.Id)
	})
}

func (r *clusteringRunRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClusteringRun, error) {
	rows, err := r.FindAll(ctx, append(specs, specification.Pagination{Limit: 1})...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *clusteringRunRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClusteringRun, error) {
	var out []*entity.ClusteringRun
	err := r.uow.do(ctx, func(t *tables) error {
		var err error
		out, err = findAll(t.runs, specs, runColumns)
		return err
	})
	return out, err
}

// admins

type adminUserRepository struct {
	uow *UnitOfWork
}

func adminColumns(a *entity.AdminUser) columns {
	return columns{
		"id":         a.Id,
		"username":   a.Username,
		"created_at": a.CreatedAt,
	}
}

func (r *adminUserRepository) Create(ctx context.Context, user *entity.AdminUser) error {
	return r.uow.do(ctx, func(t *tables) error {
		for _, row := range t.admins {
			if row.Username == user.Username {
				return fmt.Errorf("admin %q already exists", user.Username)
			}
		}
		if user.Id == uuid.Nil {
			user.Id = uuid.New()
		}
		user.CreatedAt = r.uow.store.tick()
		t.admins = append(t.admins, copyOf(user))
		return nil
	})
}

func (r *adminUserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AdminUser, error) {
	var out *entity.AdminUser
	err := r.uow.do(ctx, func(t *tables) error {
		rows, err := findAll(t.admins, append(specs, specification.Pagination{Limit: 1}), adminColumns)
		if err == nil && len(rows) > 0 {
			out = rows[0]
		}
		return err
	})
	return out, err
}

// regions

type regionRepository struct {
	uow *UnitOfWork
}

func (r *regionRepository) Upsert(ctx context.Context, regions []region.Region) error {
	return r.uow.do(ctx, func(t *tables) error {
		for _, reg := range regions {
			t.regions[reg.Name] = reg
		}
		return nil
	})
}

func (r *regionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.uow.do(ctx, func(t *tables) error {
		n = int64(len(t.regions))
		return nil
	})
	return n, err
}
