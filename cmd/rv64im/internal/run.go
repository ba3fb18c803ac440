package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/nstephens/rv64im/vm"
)

var (
	ProgramFlag = &cli.PathFlag{
		Name:     "program",
		Usage:    "path to the flat little-endian RV64IM binary to load",
		Required: true,
	}
	DataFlag = &cli.PathFlag{
		Name:  "data",
		Usage: "optional path to a file mapped as the data region at guest address 0",
	}
	StackSizeFlag = &cli.Uint64Flag{
		Name:  "stack-size",
		Usage: "size in bytes of the VM-owned stack region",
		Value: 64 * 1024,
	}
	BudgetFlag = &cli.Uint64Flag{
		Name:  "budget",
		Usage: "instruction budget for the run (0 uses the VM default)",
		Value: 100_000,
	}
	EntryFlag = &cli.Uint64Flag{
		Name:  "entry",
		Usage: "program-counter offset to begin execution at",
		Value: 0,
	}
	ArgFlag = &cli.StringSliceFlag{
		Name:  "arg",
		Usage: "hex value to seed into a0, a1, ... (x10, x11, ...) in order given",
	}
	PopFlag = &cli.IntFlag{
		Name:  "pop",
		Usage: "number of 64-bit values to pop off the stack and print after execution",
		Value: 0,
	}
	RunPProfCPU = &cli.BoolFlag{
		Name:  "cpuprofile",
		Usage: "write a CPU profile of the run to ./cpu.pprof",
	}
)

func Run(ctx *cli.Context) error {
	if ctx.Bool(RunPProfCPU.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	l := Logger(os.Stderr, log.LevelInfo)

	machine := vm.New(ctx.Uint64(StackSizeFlag.Name), vm.WithLogger(l))

	if err := machine.LoadProgramFile(ctx.Path(ProgramFlag.Name)); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}

	if dataPath := ctx.Path(DataFlag.Name); dataPath != "" {
		buf, err := os.ReadFile(dataPath)
		if err != nil {
			return fmt.Errorf("failed to read data file: %w", err)
		}
		machine.MapData(buf)
	}

	for i, hexArg := range ctx.StringSlice(ArgFlag.Name) {
		val, err := hexutil.DecodeUint64(hexArg)
		if err != nil {
			return fmt.Errorf("failed to parse --arg %q: %w", hexArg, err)
		}
		if err := machine.RegisterSet(10+i, val); err != nil {
			return fmt.Errorf("failed to seed a%d: %w", i, err)
		}
	}

	if err := machine.ExecuteProgram(ctx.Uint64(EntryFlag.Name), ctx.Uint64(BudgetFlag.Name)); err != nil {
		return fmt.Errorf("execution failed at pc 0x%x after %d instructions: %w", machine.PC(), machine.InstructionCount(), err)
	}

	a0, _ := machine.RegisterGet(10)
	a1, _ := machine.RegisterGet(11)
	l.Info("execution finished", "halted", machine.Halted(), "instructions", machine.InstructionCount(), "x10", hexutil.Uint64(a0), "x11", hexutil.Uint64(a1))

	for i := 0; i < ctx.Int(PopFlag.Name); i++ {
		v, err := vm.StackPop[uint64](machine)
		if err != nil {
			return fmt.Errorf("failed to pop stack slot %d: %w", i, err)
		}
		fmt.Printf("pop[%d] = 0x%016x\n", i, v)
	}

	return nil
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "load a flat RV64IM binary and execute it",
	Description: "Loads a flat binary image (and optional data file), seeds argument registers, runs to halt or bound, and prints the resulting register/stack state.",
	Action:      Run,
	Flags: []cli.Flag{
		ProgramFlag,
		DataFlag,
		StackSizeFlag,
		BudgetFlag,
		EntryFlag,
		ArgFlag,
		PopFlag,
		RunPProfCPU,
	},
}
