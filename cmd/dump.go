package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli"
	"winnow/utils"
)

var dump = cli.Command{
	Name:  "dump",
	Usage: "hexdump a range of target memory",
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 3, utils.ExactArgs, dumpArgsCheck); err != nil {
			return err
		}

		pid, err := strconv.Atoi(context.Args().First())
		if err != nil {
			return err
		}

		return exec(Dump, pid, context)
	},
}

func dumpArgsCheck(args cli.Args) error {
	pid := args.First()
	if !utils.CheckPid(pid) {
		return fmt.Errorf("pid %s does not exist", pid)
	}

	if _, err := strconv.ParseUint(args.Get(1), 0, 64); err != nil {
		return fmt.Errorf("invalid address %q", args.Get(1))
	}
	if n, err := strconv.Atoi(args.Get(2)); err != nil || n <= 0 {
		return fmt.Errorf("invalid length %q", args.Get(2))
	}

	return nil
}
