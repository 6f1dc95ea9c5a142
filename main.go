// Command sdweb serves a browser front end for text-to-image generation.
//
// Usage:
//
//	sdweb                     # same as "sdweb serve"
//	sdweb generate -p "a red fox" --steps 25 -o fox.png
//	sdweb validate
//	sdweb service install
//
// Configuration comes from environment variables, a .env file in the
// working directory and an optional YAML file (--config or SDWEB_CONFIG_FILE).
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"sdweb/core"
)

func main() {
	// Load .env file if it exists; the logger isn't initialized yet
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("sdweb"),
		kong.Description("Web front end for a text-to-image diffusion pipeline."),
		kong.UsageOnError(),
		kong.Vars{
			"version":        core.GetVersionInfo(),
			"default_prompt": DefaultCLIPrompt,
		},
	)

	if err := ctx.Run(&cli.Globals); err != nil {
		if !reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}
