package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the Whisper model size (tiny, base, small, medium, large, large-v2, large-v3).
	Model string
	// ModelDir is where model weights are downloaded and cached between runs.
	ModelDir string
	// ForceModelDownload removes cached weights for Model once before first use.
	ForceModelDownload bool
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// Launcher runs the whisperx package (uvx by default).
	Launcher string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "tiny"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	ChunkSize         = "15"
	BeamSize          = "5"
	Temperature       = "0.0"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodSilero   = "silero"
)

// UVXCommand is the default launcher.
const UVXCommand = "uvx"
