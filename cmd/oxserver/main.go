// Command oxserver hosts a single root handler and services whatever
// callback traffic clients provoke. It exists to give the domain stack
// (github.com/op/go-logging, github.com/urfave/cli) a concrete home outside
// the core rpc/codec packages, and as a runnable demonstration of the
// client/server façades.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"go.oxrpc.dev/ox/internal/oxlog"
	"go.oxrpc.dev/ox/server"
)

var log = oxlog.Setup("oxserver", logging.INFO)

func main() {
	app := cli.NewApp()
	app.Name = "oxserver"
	app.Usage = "host an ox root handler and service callback traffic"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr",
			Value: server.DefaultAddr,
			Usage: "address to listen on",
		},
	}
	app.Action = serveCommand

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// greet is the demo root handler: arity (string, func(string)), matching
// scenario S1 of the spec (int/string in the original; string/string here).
// It replies to the caller's continuation with a greeting built from name.
func greet(name string, reply func(string)) {
	log.Infof("greet invoked with name=%q", name)
	reply(fmt.Sprintf("hello, %s", name))
}

func serveCommand(c *cli.Context) error {
	addr := c.String("addr")
	s, err := server.Listen(context.Background(), addr)
	if err != nil {
		return err
	}
	defer s.Close()
	s.SetLogger(log)

	log.Noticef("oxserver listening on %s", s.Addr())
	return s.Serve(greet)
}
