package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/Jumpaku/go-drivemap/download"
	"github.com/spf13/cobra"
)

func (a *App) newGetCmd() *cobra.Command {
	var (
		output   string
		useCache bool
		cacheDir string
		temp     bool
	)
	cmd := &cobra.Command{
		Use:   "get [URL...]",
		Short: "Download publicly shared files without signing in",
		Long: `Download the publicly shared files at the given URLs
(https://drive.google.com/file/d/<id>/view) and write them to stdout.

Without URL arguments, URLs are read from stdin one per line until EOF or a line "end".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if len(urls) == 0 {
				var err error
				if urls, err = a.readURLs(); err != nil {
					return err
				}
			}
			if output != "" && len(urls) > 1 {
				return errors.New("--output accepts a single URL")
			}

			opts := append([]download.Option{download.WithLogger(a.logger)}, a.DownloadOptions...)
			if useCache || a.cfg.UseCache || cacheDir != "" {
				if cacheDir == "" {
					cacheDir = a.cfg.CacheDir
				}
				var cache *download.Cache
				var err error
				if cacheDir == "" {
					cache, err = download.DefaultCache()
				} else {
					cache, err = download.NewCache(cacheDir)
				}
				if err != nil {
					return err
				}
				opts = append(opts, download.WithCache(cache))
			}
			d := download.New(opts...)

			ctx := cmd.Context()
			for _, u := range urls {
				switch {
				case temp:
					path, err := d.GetFile(ctx, u)
					if err != nil {
						return err
					}
					fmt.Fprintln(a.Stdout, path)
				case output != "":
					if _, err := d.GetBytes(ctx, u, download.SaveTo(output)); err != nil {
						return err
					}
				default:
					if isTerminal(a.Stdout) {
						return errors.New("refusing to write file content to a terminal, use --output or --temp")
					}
					data, err := d.GetBytes(ctx, u)
					if err != nil {
						return err
					}
					if _, err := a.Stdout.Write(data); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the file to this path")
	cmd.Flags().BoolVar(&useCache, "cache", false, "keep downloaded files in the cache and reuse them")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory (implies --cache)")
	cmd.Flags().BoolVar(&temp, "temp", false, "print the path of a local copy instead of the content")
	return cmd
}

func (a *App) readURLs() (urls []string, err error) {
	if isTerminal(a.Stdin) {
		return nil, errors.New("no URL given")
	}
	sc := bufio.NewScanner(a.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "end" {
			break
		}
		if line != "" {
			urls = append(urls, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading URLs: %w", err)
	}
	if len(urls) == 0 {
		return nil, errors.New("no URL given")
	}
	return urls, nil
}
