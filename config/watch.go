package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch 监听 envFile 所在目录，文件被写入或重建后重新加载并回调 onChange；
// 加载失败时回调 onError 并保留旧配置。阻塞直到 ctx 结束。
func Watch(ctx context.Context, envFile string, onChange func(Config), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// 监听目录而不是文件：编辑器保存时常见“写临时文件再改名”
	if err := watcher.Add(filepath.Dir(envFile)); err != nil {
		return fmt.Errorf("watch %s: %w", envFile, err)
	}
	target := filepath.Clean(envFile)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(envFile)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
