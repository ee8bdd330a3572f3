// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/ezrec/basicml/config"
	"github.com/ezrec/basicml/cpu"
	"github.com/ezrec/basicml/emulator"
	"github.com/ezrec/basicml/program"
	"github.com/ezrec/basicml/translate"
)

// Exit status for a program stopped by the step budget, as opposed to a
// crash.
const EXIT_STEP_LIMIT = 2

const VERSION = "1.0.0"

// Word typed to finish a manually entered program.
const MANUAL_END = "END"

func main() {
	var compile string
	var configPath string
	var width int
	var size int
	var steps int
	var strict bool
	var legacy bool
	var input string
	var output string
	var logPath string
	var dump bool
	var list bool
	var lang string
	var verbose bool
	var manual bool
	var version bool

	flag.StringVar(&compile, "c", "", ".bml mnemonic file to assemble")
	flag.StringVar(&configPath, "config", "", "machine config file (.toml or .yaml)")
	flag.IntVar(&width, "w", config.CLASSIC_WORD_WIDTH, "digits per word")
	flag.IntVar(&size, "n", config.CLASSIC_MEMORY_SIZE, "words of memory")
	flag.IntVar(&steps, "steps", config.MAX_STEPS, "instruction budget")
	flag.BoolVar(&strict, "strict", false, "reject programs with malformed words")
	flag.BoolVar(&legacy, "legacy", false, "convert a 4-digit program to 6 digits, do not execute")
	flag.StringVar(&input, "i", "-", "Tape input")
	flag.StringVar(&output, "o", "-", "Tape output")
	flag.StringVar(&logPath, "log", "", "also write tape output to this file")
	flag.BoolVar(&dump, "dump", false, "print registers and memory after the run")
	flag.BoolVar(&list, "list", false, "print a disassembly of memory, do not execute")
	flag.StringVar(&lang, "lang", "", "message language, ie en-US")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&manual, "m", false, "type the program one word per line, ending with "+MANUAL_END)
	flag.BoolVar(&version, "version", false, "print the version and exit")

	flag.Parse()

	if version {
		fmt.Printf("%v %v\n", filepath.Base(os.Args[0]), VERSION)
		return
	}

	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if len(lang) != 0 {
		err := translate.SetLanguage(lang)
		if err != nil {
			logrus.Fatalf("%v: %v", lang, err)
		}
	}

	if flag.NArg() > 1 {
		logrus.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	sources := 0
	for _, given := range []bool{len(compile) != 0, manual, flag.NArg() == 1} {
		if given {
			sources++
		}
	}
	if sources > 1 {
		logrus.Fatalf("%v: give only one of -c, -m, or a program file", os.Args[0])
	}

	if legacy {
		name := flag.Arg(0)
		if len(name) == 0 {
			logrus.Fatalf("%v: -legacy needs a program file", os.Args[0])
		}
		dir, base := filepath.Split(name)
		if len(dir) == 0 {
			dir = "."
		}
		saved, err := program.ConvertFile(program.DirFS(dir), base)
		if len(saved) != 0 {
			logrus.Infof("saved %v", filepath.Join(dir, saved))
		}
		if err != nil {
			logrus.Fatal(err)
		}
		return
	}

	cfg := config.Classic()
	if len(configPath) != 0 {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			logrus.Fatalf("%v: %v", configPath, err)
		}
	}

	// Flags given on the command line override the config file.
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "w":
			cfg.WordWidth = width
		case "n":
			cfg.MemorySize = size
		case "steps":
			cfg.MaxSteps = steps
		case "strict":
			if strict {
				cfg.LoadPolicy = config.LOAD_POLICY_STRICT
			} else {
				cfg.LoadPolicy = config.LOAD_POLICY_ZERO
			}
		}
	})

	emu, err := emulator.NewEmulator(cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	emu.Verbose = verbose

	// The console tape also reads programs typed at the terminal.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	emu.Tape.Reader = os.Stdin
	if interactive {
		emu.Tape.Prompt = os.Stdout
	}

	name := flag.Arg(0)
	if sources == 0 {
		if !interactive {
			logrus.Fatalf("%v: no program given", os.Args[0])
		}
		name, err = emu.Tape.ReadLine("Enter the path of a BasicML program (type 'manual' to type it in):\n")
		if err != nil {
			logrus.Fatal(err)
		}
		manual = strings.EqualFold(name, "manual")
	}

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			logrus.Fatalf("%v: %v", compile, err)
		}
		err = emu.Assemble(inf)
		inf.Close()
		if err != nil {
			logrus.Fatalf("%v: %v", compile, err)
		}
	case manual:
		words, err := emu.Tape.ReadWords(MANUAL_END)
		if err != nil {
			logrus.Fatal(err)
		}
		err = emu.LoadWords(words)
		if err != nil {
			logrus.Fatal(err)
		}
	default:
		inf, err := os.Open(name)
		if err != nil {
			logrus.Fatalf("%v: %v", name, err)
		}
		err = emu.Load(inf)
		inf.Close()
		if err != nil {
			logrus.Fatalf("%v: %v", name, err)
		}
	}

	if list {
		err = emu.Disassemble(os.Stdout)
		if err != nil {
			logrus.Fatal(err)
		}
		return
	}

	if input != "-" {
		inf, err := os.Open(input)
		if err != nil {
			logrus.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Tape.Reader = inf
	}

	if output == "-" {
		emu.Tape.Writer = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			logrus.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Tape.Writer = ouf
	}

	if len(logPath) != 0 {
		logf, err := os.Create(logPath)
		if err != nil {
			logrus.Fatalf("%v: %v", logPath, err)
		}
		defer logf.Close()
		emu.Tape.Log = logf
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = emu.Run(ctx)
	stop()

	if dump {
		var dumpTo io.Writer = os.Stdout
		if output == "-" {
			dumpTo = os.Stderr
		}
		emu.Dump(dumpTo)
	}

	switch {
	case err == nil:
		// pass
	case errors.Is(err, cpu.ErrStepLimit):
		logrus.WithField("steps", cfg.MaxSteps).Error(err)
		os.Exit(EXIT_STEP_LIMIT)
	default:
		logrus.Fatal(err)
	}
}
