package metrics

// Config labels every instrument with the service identity.
type Config struct {
	ServiceName string
	Environment string
}
