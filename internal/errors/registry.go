package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Registration (E100-E119)
	"E100": {
		Category: CategoryRegistration,
		Message:  "No elements given",
		Detail:   "ListenTo needs a single element or a sequence of elements. Pass element.One(el) or element.Many(els...).",
	},
	"E101": {
		Category: CategoryRegistration,
		Message:  "No listener given",
		Detail:   "ListenTo needs a non-nil listener function.",
	},
	"E102": {
		Category: CategoryRegistration,
		Message:  "Nil element in target",
		Detail:   "Every element in the target sequence must be non-nil.",
	},

	// Install (E120-E139)
	"E120": {
		Category: CategoryInstall,
		Message:  "Probe install failed",
		Detail:   "The capability provider could not install a size probe on the element.",
	},
	"E121": {
		Category: CategoryInstall,
		Message:  "Element not managed by this provider",
		Detail:   "The element was created by a different session or provider.",
	},
	"E122": {
		Category: CategoryInstall,
		Message:  "Session closed",
		Detail:   "The websocket session owning the element has been closed.",
	},

	// Protocol (E140-E159)
	"E140": {
		Category: CategoryProtocol,
		Message:  "Invalid handshake",
		Detail:   "The first frame on a connection must be a well-formed client hello.",
	},
	"E141": {
		Category: CategoryProtocol,
		Message:  "Unsupported protocol version",
		Detail:   "The client speaks a protocol version this server does not support.",
	},
	"E142": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A frame or its payload could not be decoded.",
	},
	"E143": {
		Category: CategoryProtocol,
		Message:  "Unknown element",
		Detail:   "The client referenced an element ID that was never announced.",
	},

	// Config (E160-E179)
	"E160": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No sizewatch.json or sizewatch.yaml was found.",
	},
	"E161": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file could not be parsed.",
	},
	"E162": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config value is out of range.",
	},

	// CLI (E180-E199)
	"E180": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command line flag has an unsupported value.",
	},
	"E181": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command stopped with an error.",
	},
}

// Codes returns all registered error codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
