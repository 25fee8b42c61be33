package spanner

import (
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
)

func init() {
	// Register the Spanner adapter with the global registry
	dbadapter.Register(NewAdapter())
}
