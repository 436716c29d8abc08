package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"m3u8dl/enums"
	"m3u8dl/models"
	"m3u8dl/util"
	"m3u8dl/util/networking"
	"m3u8dl/util/parser"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrAlreadyRun = errors.New("downloader has already run")

// Downloader drives one playlist download: parse, fetch and
// decrypt every segment into the staging directory, merge the
// staged files in order and remove the staging directory.
type Downloader struct {
	playlistURL string
	client      models.HTTPClient
	config      *models.DownloadConfig

	mu    sync.Mutex
	state *models.RunState
}

// NewDownloader creates the output's parent directory right away.
// a nil client falls back to the shared default client.
func NewDownloader(
	playlistURL string,
	outputPath string,
	client models.HTTPClient,
	config *models.DownloadConfig,
) (*Downloader, error) {
	if playlistURL == "" {
		return nil, errors.New("playlist url is empty")
	}
	if outputPath == "" {
		return nil, errors.New("output path is empty")
	}
	if client == nil {
		client = networking.GetDefaultHTTPClient()
	}
	if err := util.EnsureDownloadDir(filepath.Dir(outputPath)); err != nil {
		return nil, err
	}
	return &Downloader{
		playlistURL: playlistURL,
		client:      client,
		config:      models.GetDownloadConfig(config),
		state: &models.RunState{
			State:      enums.RunStateCreated,
			OutputPath: outputPath,
			StagingDir: util.StagingDir(outputPath),
		},
	}, nil
}

func (d *Downloader) State() enums.RunState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.State
}

// returns completed and total segment counts
func (d *Downloader) Progress() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Completed, d.state.Total
}

func (d *Downloader) StagingDir() string {
	return d.state.StagingDir
}

func (d *Downloader) OutputPath() string {
	return d.state.OutputPath
}

// Run executes the whole pipeline. any error leaves the
// downloader in the failed state; staged files are kept
// unless CleanupOnFail is set.
func (d *Downloader) Run(ctx context.Context) (err error) {
	if d.State() != enums.RunStateCreated {
		return ErrAlreadyRun
	}
	defer func() {
		if err != nil {
			d.fail(err)
		}
	}()

	d.setState(enums.RunStateParsing)
	playlist, key, err := parser.ParsePlaylist(ctx, d.client, d.playlistURL, d.config)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.state.Total = len(playlist.Segments)
	d.state.Key = key
	d.mu.Unlock()

	d.setState(enums.RunStateDownloading)
	if err := d.download(ctx, playlist.Segments); err != nil {
		return err
	}

	d.setState(enums.RunStateMerging)
	if err := d.merge(); err != nil {
		return err
	}
	if d.config.Remux {
		if err := d.remux(); err != nil {
			return err
		}
	}

	d.setState(enums.RunStateCleaning)
	if err := d.clean(); err != nil {
		return err
	}

	d.setState(enums.RunStateDone)
	absPath, err := filepath.Abs(d.state.OutputPath)
	if err != nil {
		absPath = d.state.OutputPath
	}
	zap.S().Infof("all tasks completed -> %s", absPath)
	return nil
}

func (d *Downloader) setState(state enums.RunState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.State.IsTerminal() {
		return
	}
	zap.S().Debugf("state %s -> %s", d.state.State, state)
	d.state.State = state
}

func (d *Downloader) fail(err error) {
	d.setState(enums.RunStateFailed)
	if !d.config.CleanupOnFail {
		if _, statErr := os.Stat(d.state.StagingDir); statErr == nil {
			zap.S().Debugf("keeping staging files in %s", d.state.StagingDir)
		}
		return
	}
	if rmErr := os.RemoveAll(d.state.StagingDir); rmErr != nil {
		zap.S().Warnf("failed to remove staging directory: %v", rmErr)
		return
	}
	zap.S().Debugf("removed staging directory %s after: %v", d.state.StagingDir, err)
}

func (d *Downloader) fetchAndDecrypt(
	ctx context.Context,
	segment *models.Segment,
	total int,
	key *models.DecryptionKey,
) ([]byte, error) {
	data, err := util.FetchSegment(ctx, d.client, segment, total, d.config)
	if err != nil {
		return nil, &util.SegmentError{Index: segment.Index, Err: err}
	}
	if key == nil {
		return data, nil
	}
	data, err = util.DecryptWithKey(data, key)
	if err != nil {
		return nil, &util.SegmentError{
			Index: segment.Index,
			Err:   fmt.Errorf("failed to decrypt segment: %w", err),
		}
	}
	return data, nil
}
