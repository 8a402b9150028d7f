package votes

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type Kind string

const (
	Approve Kind = "approve"
	Reject  Kind = "reject"

	// NeutralRate is the approval rate of a clause nobody has voted on.
	NeutralRate = 50.0
)

func (k Kind) Valid() bool {
	return k == Approve || k == Reject
}

// ParseKind accepts the wire spellings of a vote.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// ApprovalRate is the share of approvals among all votes as a percentage.
func ApprovalRate(approvals, rejections int64) float64 {
	if approvals < 0 {
		approvals = 0
	}
	if rejections < 0 {
		rejections = 0
	}
	total := approvals + rejections
	if total == 0 {
		return NeutralRate
	}
	rate := float64(approvals) / float64(total) * 100
	switch {
	case rate < 0:
		return 0
	case rate > 100:
		return 100
	}
	return rate
}

// Tally counts a vote log.
type Tally struct {
	Approvals  int64   `json:"approvals"`
	Rejections int64   `json:"rejections"`
	Rate       float64 `json:"approval_rate"`
}

func Count(kinds []Kind) Tally {
	var t Tally
	for _, k := range kinds {
		switch k {
		case Approve:
			t.Approvals++
		case Reject:
			t.Rejections++
		}
	}
	t.Rate = ApprovalRate(t.Approvals, t.Rejections)
	return t
}

// HashVoterToken turns an opaque voter token into the value stored with a
// vote. An empty token yields an empty hash, meaning "anonymous".
func HashVoterToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
