package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"spatialgrid/internal/config"
	"spatialgrid/internal/model"
)

// DatasetRepository stores labelled datasets in the rectangles table
type DatasetRepository struct {
	db *gorm.DB
}

func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// SaveDataset replaces every row of label with data, keeping dataset order in seq
func (r *DatasetRepository) SaveDataset(ctx context.Context, label string, data []model.MBR) error {
	startTime := time.Now()

	rows := make([]*model.RectanglePG, len(data))
	for i, m := range data {
		rows[i] = m.ToPG(label, i)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("label = ?", label).Delete(&model.RectanglePG{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, config.PostgresBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("saving dataset %q: %w", label, err)
	}

	log.Printf("Saved dataset %q (%d rectangles) to PostgreSQL in %v", label, len(rows), time.Since(startTime))
	return nil
}

// LoadDatasets returns every stored dataset keyed by label
func (r *DatasetRepository) LoadDatasets(ctx context.Context) (map[string][]model.MBR, error) {
	var rows []*model.RectanglePG
	result := r.db.WithContext(ctx).Order("label").Order("seq").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("loading datasets: %w", result.Error)
	}

	datasets := make(map[string][]model.MBR)
	for _, row := range rows {
		datasets[row.Label] = append(datasets[row.Label], model.MBRFromPG(row))
	}
	return datasets, nil
}

// DeleteDataset removes all rows of label
func (r *DatasetRepository) DeleteDataset(ctx context.Context, label string) error {
	return r.db.WithContext(ctx).Where("label = ?", label).Delete(&model.RectanglePG{}).Error
}
