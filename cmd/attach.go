package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli"
	"winnow/pkg/logflags"
	"winnow/utils"
)

var attach = cli.Command{
	Name:  "attach",
	Usage: "attach to a process and start the interactive scanner",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "logFlag, f",
			Usage: "enable debug logging",
		},
		cli.StringFlag{
			Name:  "logStr, s",
			Usage: "specify the type of logger",
			Value: logflags.DefaultLogDesc,
		},
		cli.StringFlag{
			Name:  "logDesc, d",
			Usage: "specify the log file path",
			Value: logflags.DefaultLogDesc,
		},
		cli.StringFlag{
			Name:  "srv",
			Usage: "transport between terminal and server",
			Value: "http",
		},
	},
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 1, utils.ExactArgs, attachArgsCheck); err != nil {
			return err
		}

		if err := logflags.Setup(context.Bool("logFlag"), context.String("logStr"), context.String("logDesc")); err != nil {
			return err
		}

		pid, err := strconv.Atoi(context.Args().First())
		if err != nil {
			return err
		}
		return exec(Attach, pid, context)
	},
}

func attachArgsCheck(args cli.Args) error {
	pid := args.First()
	if !utils.CheckPid(pid) {
		return fmt.Errorf("pid %s does not exist", pid)
	}

	return nil
}
