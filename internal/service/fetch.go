package service

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/sirupsen/logrus"
)

// FetchService 按URL拉取Excel导出文件并交给导入编排器
type FetchService struct {
	client    *http.Client
	ingestion *IngestionService
	logger    *logrus.Logger
}

func NewFetchService(client *http.Client, ingestion *IngestionService, logger *logrus.Logger) *FetchService {
	return &FetchService{client: client, ingestion: ingestion, logger: logger}
}

// IngestFromURL 下载并导入。下载失败不落审计记录（还没有可归档的运行）。
func (s *FetchService) IngestFromURL(ctx context.Context, fileURL string) (*IngestReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("拉取文件失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("拉取文件失败: HTTP %d", resp.StatusCode)
	}

	filename := path.Base(req.URL.Path)
	if filename == "/" || filename == "." || filename == "" {
		filename = "remote.xlsx"
	}
	s.logger.WithField("url", fileURL).Info("文件下载完成，开始导入")
	return s.ingestion.IngestFile(ctx, filename, resp.Body)
}
