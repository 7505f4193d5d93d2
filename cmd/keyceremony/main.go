// keyceremony runs a trusted key ceremony from an election configuration
// and inspects the election record it produces.
package main

import (
	"os"

	"go.dedis.ch/onet/v3/log"
	"gopkg.in/urfave/cli.v1"
)

func main() {
	log.ErrFatal(newApp().Run(os.Args))
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "keyceremony"
	app.Usage = "Generates the joint key of the guardians of an election"
	app.Version = "0.1"
	app.Commands = []cli.Command{
		commandRun,
		commandShow,
	}
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "debug, d",
			Value: 0,
			Usage: "debug-level: 1 for terse, 5 for maximal",
		},
	}
	app.Before = func(c *cli.Context) error {
		log.SetDebugVisible(c.Int("debug"))
		return nil
	}
	return app
}
