package config

// RateLimitConfig configures the token bucket used by the HTTP rate limiter
type RateLimitConfig struct {
	Rate  int // Tokens refilled per minute
	Burst int // Bucket capacity
}

var DefaultRateLimitConfig = RateLimitConfig{
	Rate:  6000,
	Burst: 600,
}

// CheckoutRateLimitConfig is applied on top of the default limiter for payment endpoints
var CheckoutRateLimitConfig = RateLimitConfig{
	Rate:  30,
	Burst: 10,
}
