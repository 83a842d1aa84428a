package dashboard

import (
	"fmt"

	"github.com/web3-frozen/l2-showdown/internal/config"
	"github.com/web3-frozen/l2-showdown/internal/dune"
)

// SetupGuide explains how to run on a free Dune plan by saving one query per
// chain and exporting its id.
type SetupGuide struct {
	Needed  bool         `json:"needed"`
	Steps   []string     `json:"steps"`
	Queries []SetupQuery `json:"queries"`
	Note    string       `json:"note"`
}

// SetupQuery is the SQL to save in the Dune UI for one chain.
type SetupQuery struct {
	Chain   string `json:"chain"`
	EnvVar  string `json:"env_var"`
	SQL     string `json:"sql"`
	Current string `json:"current,omitempty"`
}

// Setup builds the guide for the configured chains. Needed is false when
// every chain already has a query id.
func Setup(cfg config.Config) SetupGuide {
	g := SetupGuide{
		Needed: !cfg.HasAllQueryIDs(),
		Steps: []string{
			"Go to https://dune.com and create an account.",
			"Create one query per chain in the Dune UI using the SQL below.",
			"Copy each query ID from its URL (dune.com/queries/12345 has ID 12345).",
		},
		Note: "With a paid Dune plan the service runs the raw SQL itself and no query IDs are needed.",
	}
	for _, ch := range cfg.Chains {
		g.Steps = append(g.Steps, fmt.Sprintf("Set %s=<your %s query id>.", ch.QueryIDEnv(), ch.Slug))
		g.Queries = append(g.Queries, SetupQuery{
			Chain:   ch.Slug,
			EnvVar:  ch.QueryIDEnv(),
			SQL:     dune.ChainSQL(ch.Slug),
			Current: ch.QueryIDRaw,
		})
	}
	return g
}
