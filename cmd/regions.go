package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli"
	"winnow/utils"
)

var regions = cli.Command{
	Name:  "regions",
	Usage: "list the readable and writable regions of a process",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "kind, k",
			Value: "basename",
			Usage: "filter predicate: pathname, basename or regex",
		},
		cli.StringFlag{
			Name:  "filter, p",
			Usage: "pattern the predicate applies to region pathnames",
		},
		cli.BoolFlag{
			Name:  "invert, v",
			Usage: "keep the regions that do not match",
		},
	},
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 1, utils.ExactArgs, regionsArgsCheck); err != nil {
			return err
		}

		pid, err := strconv.Atoi(context.Args().First())
		if err != nil {
			return err
		}

		return exec(Regions, pid, context)
	},
}

func regionsArgsCheck(args cli.Args) error {
	pid := args.First()

	if !utils.CheckPid(pid) {
		return fmt.Errorf("pid %s does not exist", pid)
	}

	return nil
}
