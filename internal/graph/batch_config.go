package graph

// BatchConfig bounds the size of write transactions. Small batches keep
// memory pressure down on complex nodes; edges tolerate much larger ones.
type BatchConfig struct {
	FileBatchSize   int
	ClassBatchSize  int
	MethodBatchSize int
	FieldBatchSize  int
	EdgeBatchSize   int

	// WritesPerSecond throttles batch commits so bulk builds do not
	// saturate the store. Zero disables throttling.
	WritesPerSecond float64
}

// DefaultBatchConfig suits medium projects (~5K files).
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		FileBatchSize:   1000,
		ClassBatchSize:  1000,
		MethodBatchSize: 2000,
		FieldBatchSize:  2000,
		EdgeBatchSize:   5000,
		WritesPerSecond: 50,
	}
}

// SmallProjectBatchConfig for projects under ~500 files.
func SmallProjectBatchConfig() BatchConfig {
	return BatchConfig{
		FileBatchSize:   200,
		ClassBatchSize:  200,
		MethodBatchSize: 500,
		FieldBatchSize:  500,
		EdgeBatchSize:   1000,
		WritesPerSecond: 50,
	}
}

// LargeProjectBatchConfig for projects over ~10K files.
func LargeProjectBatchConfig() BatchConfig {
	return BatchConfig{
		FileBatchSize:   2000,
		ClassBatchSize:  2000,
		MethodBatchSize: 5000,
		FieldBatchSize:  5000,
		EdgeBatchSize:   10000,
		WritesPerSecond: 100,
	}
}

// BatchSizeForLabel returns the node batch size for a label.
func (bc BatchConfig) BatchSizeForLabel(label string) int {
	switch label {
	case "File", "Package":
		return bc.FileBatchSize
	case "Class", "Interface":
		return bc.ClassBatchSize
	case "Method", "Constructor":
		return bc.MethodBatchSize
	case "Field", "Variable", "Import":
		return bc.FieldBatchSize
	default:
		return 500
	}
}
