// Command jpegstego hides and recovers short secret messages inside
// baseline JPEG images by modulating the least-significant bits of
// quantised DCT coefficients at positions chosen by a keyed permutation.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/thvl3/jpegstego/pkg/engine"
	"github.com/thvl3/jpegstego/pkg/models"
	"github.com/thvl3/jpegstego/pkg/secretio"
)

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func printAlert(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", alertColor("[!!!]"), fmt.Sprintf(format, args...))
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  jpegstego --write FILE [SECRET]   hide stdin as a message in FILE, emit out.jpeg")
	fmt.Fprintln(os.Stderr, "  jpegstego --read FILE [SECRET]    recover a hidden message from FILE to stdout")
	fmt.Fprintln(os.Stderr, "  jpegstego --estimate FILE         print capacity statistics for FILE")
	flag.PrintDefaults()
}

func main() {
	var (
		writeMode    = flag.Bool("write", false, "hide stdin as a message in FILE")
		readMode     = flag.Bool("read", false, "recover a hidden message from FILE")
		estimateMode = flag.Bool("estimate", false, "print capacity statistics for FILE")
	)
	flag.Parse()

	fmt.Fprintln(os.Stderr, "jpegstego")
	fmt.Fprintln(os.Stderr, "DCT-coefficient JPEG steganography")
	fmt.Fprintln(os.Stderr, "-----------------------------------")

	modes := 0
	for _, m := range []bool{*writeMode, *readMode, *estimateMode} {
		if m {
			modes++
		}
	}
	if modes != 1 {
		printError("exactly one of --write, --read, --estimate is required")
		usage()
		os.Exit(1)
	}

	switch {
	case *writeMode:
		os.Exit(runWrite(flag.Args()))
	case *readMode:
		os.Exit(runRead(flag.Args()))
	case *estimateMode:
		os.Exit(runEstimate(flag.Args()))
	default:
		printError("unknown subcommand")
		os.Exit(2)
	}
}

// passphrase resolves SECRET: args[1] if present, else file descriptor 4.
func passphrase(args []string) ([]byte, error) {
	if len(args) >= 2 {
		return []byte(args[1]), nil
	}
	return secretio.ReadPassphraseFD4()
}

func runWrite(args []string) int {
	if len(args) < 1 {
		printError("--write requires FILE")
		return 100
	}
	file := args[0]

	key, err := passphrase(args)
	if err != nil {
		printError("failed to read passphrase: %v", err)
		return 101
	}

	plaintext, err := secretio.ReadStdin()
	if err != nil {
		printError("failed to read stdin: %v", err)
		return 3
	}

	stats, err := engine.Encode(file, engine.DefaultOutputName, plaintext, key, engine.DefaultRadius)
	if err != nil {
		return reportEngineError("write", err)
	}

	printSuccess("wrote %d bytes to %s (%d/%d bits used)", len(plaintext), engine.DefaultOutputName, stats.BitsUsed, stats.BitsAvailable)
	printStatistics(stats)
	return 0
}

func runRead(args []string) int {
	if len(args) < 1 {
		printError("--read requires FILE")
		return 200
	}
	file := args[0]

	key, err := passphrase(args)
	if err != nil {
		printError("failed to read passphrase: %v", err)
		return 201
	}

	plaintext, stats, err := engine.Decode(file, key, engine.DefaultRadius)
	if err != nil {
		return reportEngineError("read", err)
	}

	os.Stdout.Write(plaintext)
	printSuccess("recovered %d bytes", len(plaintext))
	printStatistics(stats)
	return 0
}

func runEstimate(args []string) int {
	if len(args) < 1 {
		printError("--estimate requires FILE")
		return 302
	}
	file := args[0]

	stats, err := engine.Estimate(file, engine.DefaultRadius)
	if err != nil {
		return reportEngineError("estimate", err)
	}

	printStatistics(stats)
	return 0
}

// reportEngineError prints the pipeline's status string and returns the
// pipeline's own Code as the process exit code.
func reportEngineError(op string, err error) int {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		printError("%s failed: %v", op, err)
		return 1
	}
	if engErr.Code == engine.CodeGarbage {
		printAlert("%s failed: %s", op, engine.Describe(engErr.Code))
	} else {
		printError("%s failed: %s", op, engErr.Error())
	}
	return int(engErr.Code)
}

func printStatistics(stats models.Statistics) {
	printInfo("colourspace: %s", stats.ColorSpace)
	printInfo("bits per block: %d", stats.BitsPerBlock)
	printInfo("bits available: %d", stats.BitsAvailable)
	printInfo("bits used: %d (%.2f%%)", stats.BitsUsed, stats.UsageFraction()*100)
	for _, c := range stats.Components {
		printInfo("component %d: %dx%d blocks, usable %d, afraid(w=%v,h=%v)",
			c.Index, c.WidthInBlocks, c.HeightInBlocks, c.UsableBlocks, c.AfraidW, c.AfraidH)
	}
}
