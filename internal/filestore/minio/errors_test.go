package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/koustreak/sqlreverse/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"404", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"403", miniogo.ErrorResponse{StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey"}, errs.ErrKindNotFound},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown"}, errs.ErrKindTimeout},
		{"wrapped", fmt.Errorf("get: %w", miniogo.ErrorResponse{Code: "AccessDenied"}), errs.ErrKindPermissionDenied},
		{"expired token", miniogo.ErrorResponse{Code: "ExpiredToken", StatusCode: http.StatusBadRequest}, errs.ErrKindPermissionDenied},
		{"code wins over status", miniogo.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusForbidden}, errs.ErrKindNotFound},
		{"unclassified response", miniogo.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, errs.ErrKindUnknown},
		{"transport", errors.New("dial tcp: no route"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, mapError(tt.err, "open base.tmpl").Kind)
		})
	}

	assert.Nil(t, mapError(nil, "noop"))
}
