package main

import (
	"fmt"
	"os"

	"github.com/file-drop/file-drop-backend/pkg/client"
	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	config.Load()
	config.ConfigureLogging()

	app := &cli.App{
		Name:  "file-drop-ctl",
		Usage: "upload, list, download, and delete files on a file-drop server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "http://localhost:8000",
				Usage: "base URL of the file-drop server",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "upload a local file, chunking it when it exceeds the configured chunk size",
				ArgsUsage: "PATH",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one file path")
					}
					resp, err := newClient(c).Upload(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					fmt.Printf("%s %s\n", resp.UUID, resp.OriginalFilename)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list stored files",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.IntFlag{Name: "offset", Value: 0},
				},
				Action: func(c *cli.Context) error {
					resp, err := newClient(c).List(c.Context, c.Int("limit"), c.Int("offset"))
					if err != nil {
						return err
					}
					for _, file := range resp.Data {
						fmt.Printf("%s\t%d\t%s\n", file.UUID, file.Size, file.OriginalFilename)
					}
					return nil
				},
			},
			{
				Name:      "download",
				Usage:     "download a stored file to a local path",
				ArgsUsage: "UUID PATH",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("expected a file UUID and an output path")
					}
					out, err := os.Create(c.Args().Get(1))
					if err != nil {
						return err
					}
					defer out.Close()
					return newClient(c).Download(c.Context, c.Args().First(), out)
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a stored file",
				ArgsUsage: "UUID",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one file UUID")
					}
					return newClient(c).Delete(c.Context, c.Args().First())
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newClient(c *cli.Context) *client.UploadClient {
	conf := config.Get()
	return client.New(c.String("server"), conf.Uploads.ChunkSizeBytes(), conf.Uploads.MaxRetries)
}
