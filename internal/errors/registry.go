package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E199)
	// ============================================

	"E101": {
		Category:   CategoryConfig,
		Message:    "Project configuration not found",
		Detail:     "No replayview.json was found in this directory or any parent directory.",
		Suggestion: "Create a replayview.json in the project root",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Invalid project configuration",
		Detail:     "replayview.json could not be parsed.",
		Suggestion: "Check that replayview.json is valid JSON",
	},
	"E103": {
		Category:   CategoryConfig,
		Message:    "Invalid dev server port",
		Detail:     "The dev server port must be a positive integer below 65536.",
		Suggestion: "Set dev.port in replayview.json or export FRONTEND_PORT",
	},

	// ============================================
	// Bundle Errors (E200-E299)
	// ============================================

	"E201": {
		Category:   CategoryBundle,
		Message:    "Bundle build failed",
		Detail:     "One or more source modules could not be read into the bundle.",
		Suggestion: "Check the listed file for permission or encoding problems",
	},
	"E202": {
		Category:   CategoryBundle,
		Message:    "Empty module graph",
		Detail:     "The app source directory contains no bundleable modules.",
		Suggestion: "Check the paths.app setting in replayview.json",
	},

	"E203": {
		Category:   CategoryBundle,
		Message:    "Build output could not be written",
		Detail:     "The output directory could not be created or written to.",
		Suggestion: "Check permissions on the build output directory",
	},

	// ============================================
	// Server Errors (E300-E399)
	// ============================================

	"E301": {
		Category:   CategoryServer,
		Message:    "Dev server failed to bind",
		Detail:     "The listener could not be opened on the configured host and port. The port may already be in use or require elevated permissions.",
		Suggestion: "Stop the process using the port, or choose another with --port",
	},

	// ============================================
	// Client Errors (E400-E499)
	// ============================================

	"E401": {
		Category:   CategoryClient,
		Message:    "Mount node not configured",
		Detail:     "The bootstrap was given no mount target to render into.",
		Suggestion: "Set Config.Mount before calling Initialize",
	},
	"E402": {
		Category:   CategoryClient,
		Message:    "Renderer not configured",
		Detail:     "The bootstrap was given no renderer to hydrate with.",
		Suggestion: "Set Config.Renderer before calling Initialize",
	},
	"E403": {
		Category:   CategoryClient,
		Message:    "Bootstrap not initialized",
		Detail:     "RenderApp was called before Initialize.",
		Suggestion: "Call Initialize once before rendering",
	},

	// ============================================
	// Deploy Errors (E500-E599)
	// ============================================

	"E501": {
		Category:   CategoryDeploy,
		Message:    "Deploy upload failed",
		Detail:     "An object could not be uploaded to the target bucket.",
		Suggestion: "Check AWS credentials and bucket permissions",
	},
	"E502": {
		Category:   CategoryDeploy,
		Message:    "Nothing to deploy",
		Detail:     "The build output directory does not exist or is empty.",
		Suggestion: "Run 'replayview build' before deploying",
	},
}

// Lookup returns the template for a code, if registered.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
