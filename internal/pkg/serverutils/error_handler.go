package serverutils

import (
	"errors"

	"peoples-bill-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		validationErr *apperror.ValidationError
		inProgressErr *apperror.ClusteringInProgressError
		embeddingErr  *apperror.EmbeddingServiceError
		generationErr *apperror.ClauseGenerationError
		duplicateErr  *apperror.DuplicateVoteError
		notFoundErr   *apperror.NotFoundError
		fiberErr      *fiber.Error
	)

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	case errors.As(err, &inProgressErr):
		return fiber.StatusConflict
	case errors.As(err, &embeddingErr):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &generationErr):
		return fiber.StatusInternalServerError
	case errors.As(err, &duplicateErr):
		return fiber.StatusConflict
	case errors.As(err, &notFoundErr):
		return fiber.StatusNotFound
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler is the fiber.Config ErrorHandler. Internal errors keep their
// message out of the response.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := StatusFor(err)
	message := err.Error()
	if code == fiber.StatusInternalServerError {
		message = "internal server error"
	}

	var (
		validationErr *apperror.ValidationError
		inProgressErr *apperror.ClusteringInProgressError
	)
	switch {
	case errors.As(err, &validationErr):
		return ctx.Status(code).JSON(ErrorResponseWithData(code, message, validationErr))
	case errors.As(err, &inProgressErr):
		return ctx.Status(code).JSON(ErrorResponseWithData(code, message, inProgressErr))
	}
	return ctx.Status(code).JSON(ErrorResponse(code, message))
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers so
// later middleware sees a written response.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return ErrorHandler(ctx, err)
		}
		return nil
	}
}
