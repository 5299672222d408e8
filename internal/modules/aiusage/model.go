// README: Monthly quota for AI product-copy generations, per admin.
package aiusage

import "errors"

// ErrInsufficientTokens is returned when an admin has no generations left this month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of generations granted per month.
const DefaultTokens = 100
