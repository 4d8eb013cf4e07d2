// Package command resolves executables and builds the process description
// used to spawn a child.
//
// # Executable Discovery
//
// The Discoverer interface locates the binary named by argv[0]:
//
//	discoverer := command.NewDiscoverer(&command.Config{
//	    SearchPaths: []string{"/opt/tools/bin"},
//	    Logger:      slog.Default(),
//	})
//	path, err := discoverer.Discover("sampleapp")
//
// Discovery resolves names in the following order:
//  1. Names containing a path separator are used as-is (must exist)
//  2. System PATH
//  3. Config.SearchPaths, in order
//
// A name that cannot be resolved yields an *errors.SpawnError that records
// every location searched.
//
// # Environment
//
// BuildEnvironment merges caller overrides onto the parent environment:
//
//	env := command.BuildEnvironment(map[string]string{"MY_VAR": "123"})
//
// Variables not named in the overrides are inherited unchanged.
package command
