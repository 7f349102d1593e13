// internal/matching/score-candidates/config.go
package scorecandidates

type Config struct {
	TopN int
}

func LoadConfig() *Config {
	return &Config{
		TopN: DefaultTopN,
	}
}
