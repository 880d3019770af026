// Command oxclient dials an oxserver, invokes its root handler with a name
// and a continuation, and logs whatever the continuation receives back.
package main

import (
	"context"
	"os"
	"time"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"go.oxrpc.dev/ox/client"
	"go.oxrpc.dev/ox/internal/oxlog"
)

var log = oxlog.Setup("oxclient", logging.INFO)

func main() {
	app := cli.NewApp()
	app.Name = "oxclient"
	app.Usage = "invoke an oxserver's root handler and print its reply"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr",
			Value: "127.0.0.1:" + client.DefaultPort,
			Usage: "address to dial",
		},
		cli.StringFlag{
			Name:  "name",
			Value: "world",
			Usage: "name passed to the server's root handler",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 5 * time.Second,
			Usage: "how long to wait for the server's reply before giving up",
		},
	}
	app.Action = invokeCommand

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func invokeCommand(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	sess, err := client.Dial(ctx, c.String("addr"))
	if err != nil {
		return err
	}
	defer sess.Close()

	replied := make(chan string, 1)
	if err := sess.Invoke(c.String("name"), func(msg string) { replied <- msg }); err != nil {
		return err
	}

	select {
	case msg := <-replied:
		log.Noticef("server replied: %s", msg)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
