package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"m3u8dl/config"
	"m3u8dl/core"
	"m3u8dl/logger"
	"m3u8dl/models"
	"m3u8dl/util"
	"m3u8dl/util/networking"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	url              string
	output           string
	key              string
	timeout          int
	headers          string
	cookies          string
	concurrency      int
	remux            bool
	cleanupOnFailure bool
	verbose          bool
}

func main() {
	logger.Init()
	defer logger.Sync()

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		zap.S().Error(err)
		logger.Sync()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "m3u8dl -u <m3u8 url> -o <output file>",
		Short:         "Download, decrypt (AES-128/CBC) and merge an m3u8 playlist",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.url, "url", "u", "", "m3u8 playlist url")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (mp4/ts)")
	flags.StringVarP(&opts.key, "key", "k", "", "16 bytes hex key or key url (read from the playlist when empty)")
	flags.IntVarP(&opts.timeout, "timeout", "t", 30, "request timeout in seconds")
	flags.StringVar(&opts.headers, "headers", "", "path to a JSON file with request headers")
	flags.StringVar(&opts.cookies, "cookies", "", "path to a netscape cookie file")
	flags.IntVar(&opts.concurrency, "concurrency", 1, "segments fetched ahead of the merge order")
	flags.BoolVar(&opts.remux, "remux", false, "remux the merged file with ffmpeg")
	flags.BoolVar(&opts.cleanupOnFailure, "cleanup-on-failure", false, "remove staged segments when the download fails")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagRequired("output")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if err := config.Load(); err != nil {
		return err
	}
	logger.SetLevel(config.Env.LogLevel)
	if opts.verbose {
		logger.SetLevel("debug")
	}
	if err := logger.SetLogFile(config.Env.LogFile); err != nil {
		return err
	}

	if opts.timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", opts.timeout)
	}
	headers, err := util.LoadHeaders(opts.headers)
	if err != nil {
		return err
	}
	cookies, err := util.ParseCookieFile(opts.cookies)
	if err != nil {
		return err
	}

	downloadConfig := models.GetDownloadConfig(&models.DownloadConfig{
		Timeout:       time.Duration(opts.timeout) * time.Second,
		RetryAttempts: config.Env.RetryAttempts,
		RetryDelay:    config.Env.RetryDelay,
		Concurrency:   opts.concurrency,
		Remux:         opts.remux,
		CleanupOnFail: opts.cleanupOnFailure,
		Headers:       headers,
		Cookies:       cookies,
		DecryptionKey: opts.key,
	})
	client := networking.NewClientFromConfig(config.GetHostConfig(opts.url))

	downloader, err := core.NewDownloader(opts.url, opts.output, client, downloadConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return downloader.Run(ctx)
}
