package venue

import "github.com/sawpanic/fundarb/internal/metrics"

// reg is package-scoped like the engine's own metrics field (engine.SetMetrics):
// adapters are constructed by Factory functions with no metrics parameter, so
// cmd/fundarb wires the registry in once at startup rather than threading it
// through every NewBinance/NewBybit/NewBitget/NewOKX call.
var reg *metrics.Registry

// SetMetrics installs the registry adapters record reconnects against.
func SetMetrics(m *metrics.Registry) { reg = m }
