package metrics

import pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"

// isClientError reports whether err would be answered with a 4xx.
func isClientError(err error) bool {
	status := pkgerrors.HTTPStatus(err)
	return status >= 400 && status < 500
}
