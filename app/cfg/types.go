package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ItemsDir         string
	Port             string
	APIAccessKey     string
	CheckConcurrency int
	CheckTimeout     int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
