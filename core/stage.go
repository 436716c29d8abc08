package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"m3u8dl/models"
	"m3u8dl/util"
	"m3u8dl/util/av"

	"go.uber.org/zap"
)

type segmentResult struct {
	data []byte
	err  error
}

func (d *Downloader) download(ctx context.Context, segments []*models.Segment) error {
	if err := os.MkdirAll(d.state.StagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	if d.config.Concurrency > 1 {
		return d.downloadWindowed(ctx, segments)
	}

	total := len(segments)
	for _, segment := range segments {
		data, err := d.fetchAndDecrypt(ctx, segment, total, d.state.Key)
		if err != nil {
			return err
		}
		if err := d.stage(segment, data); err != nil {
			return err
		}
	}
	return nil
}

// fetches up to Concurrency segments ahead of the staging cursor.
// staging and its log line still happen in index order and the
// first failing index stops the run.
func (d *Downloader) downloadWindowed(ctx context.Context, segments []*models.Segment) error {
	total := len(segments)
	downloadCtx, cancelDownload := context.WithCancel(ctx)
	defer cancelDownload()

	results := make([]chan segmentResult, total)
	for i := range results {
		results[i] = make(chan segmentResult, 1)
	}
	// a slot is taken in index order by the launcher
	// and given back once the segment is staged
	semaphore := make(chan struct{}, d.config.Concurrency)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i, segment := range segments {
			select {
			case semaphore <- struct{}{}:
			case <-downloadCtx.Done():
				return
			}
			wg.Add(1)
			go func(idx int, segment *models.Segment) {
				defer wg.Done()
				data, err := d.fetchAndDecrypt(downloadCtx, segment, total, d.state.Key)
				results[idx] <- segmentResult{data: data, err: err}
			}(i, segment)
		}
	}()

	stop := func(err error) error {
		cancelDownload()
		wg.Wait()
		return err
	}
	for i, segment := range segments {
		var result segmentResult
		select {
		case result = <-results[i]:
		case <-downloadCtx.Done():
			return stop(downloadCtx.Err())
		}
		if result.err != nil {
			return stop(result.err)
		}
		if err := d.stage(segment, result.data); err != nil {
			return stop(err)
		}
		<-semaphore
	}
	wg.Wait()
	return nil
}

func (d *Downloader) stage(segment *models.Segment, data []byte) error {
	path := filepath.Join(d.state.StagingDir, segment.StagingName(util.SegmentExt))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &util.SegmentError{
			Index: segment.Index,
			Err:   fmt.Errorf("failed to write staging file: %w", err),
		}
	}

	d.mu.Lock()
	d.state.Staged = append(d.state.Staged, path)
	d.state.Completed++
	completed, total := d.state.Completed, d.state.Total
	d.mu.Unlock()

	zap.S().Infof("[%d/%d] done", segment.Index, total)
	if d.config.ProgressUpdater != nil {
		d.config.ProgressUpdater(completed, total)
	}
	return nil
}

// the output file is only opened once every segment is staged
func (d *Downloader) merge() (err error) {
	zap.S().Infof("merging %d segments", len(d.state.Staged))
	output, err := os.Create(d.state.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := output.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	var written int64
	for _, path := range d.state.Staged {
		n, err := util.AppendFile(output, path)
		if err != nil {
			return fmt.Errorf("failed to merge segments: %w", err)
		}
		written += n
	}
	absPath, err := filepath.Abs(d.state.OutputPath)
	if err != nil {
		absPath = d.state.OutputPath
	}
	zap.S().Debugf("merged %d bytes", written)
	zap.S().Infof("merged -> %s", absPath)
	return nil
}

// remuxes the merged output in place and logs what ffprobe sees
func (d *Downloader) remux() error {
	if err := av.RemuxFile(d.state.OutputPath); err != nil {
		return err
	}
	duration, width, height := av.GetVideoInfo(d.state.OutputPath)
	zap.S().Infof("remuxed output: duration=%ds resolution=%dx%d", duration, width, height)
	return nil
}

func (d *Downloader) clean() error {
	for _, path := range d.state.Staged {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove staging file: %w", err)
		}
	}
	// leftovers of an earlier aborted run
	leftovers, err := util.ListStagedFiles(d.state.StagingDir)
	if err != nil {
		return err
	}
	for _, path := range leftovers {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove staging file: %w", err)
		}
	}
	if err := os.Remove(d.state.StagingDir); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return nil
}
