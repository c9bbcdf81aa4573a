package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/sqlreverse/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
)

// readCodes classifies the S3 error codes a bucket listing or object read
// can return. Codes win over the HTTP status, which S3 reuses loosely.
var readCodes = map[string]errs.ErrKind{
	"NoSuchBucket":          errs.ErrKindNotFound,
	"NoSuchKey":             errs.ErrKindNotFound,
	"AccessDenied":          errs.ErrKindPermissionDenied,
	"AllAccessDisabled":     errs.ErrKindPermissionDenied,
	"InvalidAccessKeyId":    errs.ErrKindPermissionDenied,
	"SignatureDoesNotMatch": errs.ErrKindPermissionDenied,
	"ExpiredToken":          errs.ErrKindPermissionDenied,
	"InvalidBucketName":     errs.ErrKindInvalidInput,
	"InvalidObjectName":     errs.ErrKindInvalidInput,
	"RequestTimeout":        errs.ErrKindTimeout,
	"SlowDown":              errs.ErrKindTimeout,
}

var readStatuses = map[int]errs.ErrKind{
	http.StatusNotFound:     errs.ErrKindNotFound,
	http.StatusForbidden:    errs.ErrKindPermissionDenied,
	http.StatusUnauthorized: errs.ErrKindPermissionDenied,
	http.StatusBadRequest:   errs.ErrKindInvalidInput,
}

// mapError classifies a failed template listing or download. Anything the
// S3 layer did not answer is treated as an unreachable store.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		if kind, ok := readCodes[resp.Code]; ok {
			return errs.Wrap(kind, msg, err)
		}
		if kind, ok := readStatuses[resp.StatusCode]; ok {
			return errs.Wrap(kind, msg, err)
		}
		return errs.Wrap(errs.ErrKindUnknown, msg, err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
