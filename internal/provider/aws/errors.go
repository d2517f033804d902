package aws

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

func hasErrorCode(err error, code string) bool {
	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		return apiError.ErrorCode() == code
	}
	return false
}

// isNotFound reports EC2 "<Resource>ID.NotFound" style errors, which mean the
// resource is already gone.
func isNotFound(err error) bool {
	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		return strings.HasSuffix(apiError.ErrorCode(), ".NotFound")
	}
	return false
}
