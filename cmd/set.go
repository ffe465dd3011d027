package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli"
	"winnow/utils"
)

var set = cli.Command{
	Name:  "set",
	Usage: "writing target memory is unsafe; the process keeps running while the bytes change under it.",
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 3, utils.ExactArgs, setArgsCheck); err != nil {
			return err
		}

		pid, err := strconv.Atoi(context.Args().First())
		if err != nil {
			return err
		}

		return exec(Set, pid, context)
	},
}

func setArgsCheck(args cli.Args) error {
	pid := args.First()
	if !utils.CheckPid(pid) {
		return fmt.Errorf("pid %s does not exist", pid)
	}

	if _, err := strconv.ParseUint(args.Get(1), 0, 64); err != nil {
		return fmt.Errorf("invalid address %q", args.Get(1))
	}

	return nil
}
