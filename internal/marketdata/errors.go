package marketdata

import "errors"

// ErrSymbolNotFound indicates the provider does not know the requested
// symbol. Callers check it with errors.Is and map it to a 404.
var ErrSymbolNotFound = errors.New("symbol not found")
