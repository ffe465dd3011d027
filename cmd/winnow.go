package cmd

import "github.com/urfave/cli"

const (
	usage = `winnow is a search-and-narrow memory scanner: it attaches to a running
             process, finds the addresses holding a value, and narrows them as the value changes`
)

func NewWinnow() *cli.App {
	app := cli.NewApp()
	app.Name = "winnow"
	app.Usage = usage
	app.Commands = []cli.Command{
		attach,
		conn,
		regions,
		dump,
		set,
	}

	return app
}
