// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/emulator"
)

// load reads a program: assembler source, Intel HEX, or a raw binary at
// the flash origin.
func load(emu *emulator.Emulator, path string) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		prog, err = cpu.LoadHex(inf)
	case ".bin":
		var data []byte
		data, err = io.ReadAll(inf)
		if err != nil {
			return
		}
		prog = cpu.NewBinary(data, cpu.ORIGIN)
	default:
		asm := &cpu.Assembler{}
		emu.Predefine(asm)
		prog, err = asm.Parse(inf)
	}

	return
}

func report(out *os.File, rep emulator.Report, emu *emulator.Emulator, top int) {
	var profile []emulator.CallStat
	if top > 0 {
		profile = emu.Profile.Top(top)
	}

	if term.IsTerminal(int(out.Fd())) {
		tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', tabwriter.AlignRight)
		for _, field := range rep.Fields() {
			fmt.Fprintf(tw, "%s:\t%s\t\n", field.Name, field.Value)
		}
		for _, stat := range profile {
			fmt.Fprintf(tw, "%s:\t%d calls\t%d cycles\t\n", stat.Name, stat.Calls, stat.Cycles)
		}
		tw.Flush()
		return
	}

	for _, field := range rep.Fields() {
		fmt.Fprintf(out, "%s=%s\n", field.Name, field.Value)
	}
	for _, stat := range profile {
		fmt.Fprintf(out, "profile.%s=%d,%d\n", stat.Name, stat.Calls, stat.Cycles)
	}
}

func main() {
	var config string
	var trace string
	var input string
	var verbose bool
	var ideal float64
	var maxCycles int64
	var retries int
	var top int

	flag.StringVar(&config, "c", "", ".toml node configuration")
	flag.StringVar(&trace, "t", "", "Energy trace (.csv or .star), overriding the configuration")
	flag.StringVar(&input, "i", "", "Console input, or - for stdin")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Float64Var(&ideal, "ideal", 0, "Run on an ideal supply of this voltage")
	flag.Int64Var(&maxCycles, "m", 0, "Cycle limit over all lifecycles")
	flag.IntVar(&retries, "r", -1, "Lifecycle retries, overriding the configuration")
	flag.IntVar(&top, "p", 0, "Report the top N functions by cycles")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %v [options] program.{s,hex,bin}\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := emulator.DefaultConfig()
	if len(config) != 0 {
		var err error
		cfg, err = emulator.LoadConfig(config)
		if err != nil {
			log.Fatalf("%v: %v", config, err)
		}
	}
	if len(trace) != 0 {
		cfg.Power.Trace = trace
	}
	if ideal > 0 {
		cfg.Power.Supply = emulator.SUPPLY_IDEAL
		cfg.Power.IdealVoltage = ideal
		cfg.Power.Trace = ""
	}
	if retries >= 0 {
		cfg.Node.MaxRetries = retries
	}

	emu, err := emulator.NewEmulator(cfg)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
	emu.Verbose = verbose

	switch input {
	case "":
	case "-":
		emu.Console.Input = os.Stdin
	default:
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Console.Input = inf
	}
	emu.Console.Output = os.Stdout

	prog, err := load(emu, path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	err = emu.Load(prog)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	rep, err := emu.Run(maxCycles)
	report(os.Stdout, rep, emu, top)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
}
