package domain

import "errors"

var (
	// ErrRecognitionUnavailable is returned when the vision service cannot label an image
	ErrRecognitionUnavailable = errors.New("recognition service unavailable")

	// ErrMissingCredential is returned when the recognition client has no API key
	ErrMissingCredential = errors.New("recognition credential not configured")

	// ErrInvalidImage is returned when the image payload cannot be decoded
	ErrInvalidImage = errors.New("invalid image payload")

	// ErrProductNotFound is returned when a product is not in the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateBarcode is returned when a product's barcode is already in the catalog
	ErrDuplicateBarcode = errors.New("barcode already in catalog")

	// ErrCartLineNotFound is returned when a cart line does not exist
	ErrCartLineNotFound = errors.New("cart item not found")

	// ErrForbidden is returned when a user touches another user's cart line
	ErrForbidden = errors.New("not authorized to modify this cart item")

	// ErrInvalidQuantity is returned for quantities outside 1..MaxLineQuantity
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrScanInProgress is returned when a user starts a scan while another is in flight
	ErrScanInProgress = errors.New("a scan is already in progress")

	// ErrNoPendingConfirmation is returned when resuming a scan that is not awaiting confirmation
	ErrNoPendingConfirmation = errors.New("no scan awaiting confirmation")

	// ErrUnauthorized is returned when the caller identity cannot be established
	ErrUnauthorized = errors.New("not authenticated")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
