package export

import (
	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Row is the Parquet schema of an exported sample
type Row struct {
	Time     int64   `parquet:"name=time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	DeviceID string  `parquet:"name=device_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Metric   string  `parquet:"name=metric, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value    float64 `parquet:"name=value, type=DOUBLE"`
	Source   string  `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

func toRow(d models.TimeseriesData) Row {
	return Row{
		Time:     d.Time.UTC().UnixMilli(),
		DeviceID: d.DeviceID,
		Metric:   d.Metric,
		Value:    d.Value,
		Source:   d.Source,
	}
}

// compressionCodec maps the configured name to a codec, SNAPPY by default
func compressionCodec(name string) parquet.CompressionCodec {
	switch name {
	case "ZSTD":
		return parquet.CompressionCodec_ZSTD
	case "GZIP":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_SNAPPY
	}
}

// writeParquet writes samples to a local Parquet file
func writeParquet(path string, samples []models.TimeseriesData, compression string) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}

	pw, err := writer.NewParquetWriter(fw, new(Row), 2)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = compressionCodec(compression)

	for _, s := range samples {
		if err := pw.Write(toRow(s)); err != nil {
			_ = fw.Close()
			return err
		}
	}

	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
