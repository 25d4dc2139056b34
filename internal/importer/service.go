package importer

import (
	"bytes"
	"context"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/storage"
	"github.com/cesarmartin1/crm-david/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Service loads workbooks into the quote and customer stores
type Service struct {
	quotes    QuoteWriter
	customers CustomerWriter
	archive   storage.Storage
	prefix    string
	now       func() time.Time
}

// NewService creates an import service. archive may be nil, in which case
// uploaded workbooks are not kept.
func NewService(quotes QuoteWriter, customers CustomerWriter, archive storage.Storage, prefix string) *Service {
	return &Service{
		quotes:    quotes,
		customers: customers,
		archive:   archive,
		prefix:    prefix,
		now:       time.Now,
	}
}

func checkUpload(file Upload) error {
	if len(file.Data) == 0 {
		return common.NewBadRequestError("empty file", nil)
	}
	if !storage.IsSpreadsheet(file.Name) {
		return common.NewBadRequestError("only .xlsx and .xlsm workbooks are supported", nil)
	}
	return nil
}

// ImportQuotes replaces the quote dataset with the lines of file. When
// customerMap is given it fills the customer code of lines that lack one.
// A workbook without lines is rejected so a bad export never wipes the data.
func (s *Service) ImportQuotes(ctx context.Context, file Upload, customerMap *Upload) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.quotes", attribute.String("file.name", file.Name))
	defer span.End()

	if err := checkUpload(file); err != nil {
		return nil, rejected(KindQuotes, err)
	}
	lines, skipped, err := ParseQuotes(file.Data)
	if err != nil {
		return nil, rejected(KindQuotes, common.NewBadRequestError("invalid quotes workbook: "+err.Error(), err))
	}
	if len(lines) == 0 {
		return nil, rejected(KindQuotes, common.NewBadRequestError("quotes workbook has no lines", nil))
	}

	res := &Result{Kind: KindQuotes, FileName: file.Name, Rows: len(lines) + len(skipped), Skipped: skipped}

	if customerMap != nil {
		if err := checkUpload(*customerMap); err != nil {
			return nil, rejected(KindQuotes, err)
		}
		m, err := ParseCustomerMap(customerMap.Data)
		if err != nil {
			return nil, rejected(KindQuotes, common.NewBadRequestError("invalid customer map workbook: "+err.Error(), err))
		}
		res.CustomerCodesFilled = FillCustomerCodes(lines, m)
	}

	n, err := s.quotes.ReplaceAll(ctx, lines)
	if err != nil {
		tracing.RecordError(span, err)
		importsTotal.WithLabelValues(string(KindQuotes), "failed").Inc()
		return nil, common.NewInternalError("failed to import quotes", err)
	}
	res.Imported = n
	res.ImportedAt = s.now()
	res.ArchiveKey = s.archiveFile(ctx, KindQuotes, file)

	span.SetAttributes(attribute.Int("import.rows", res.Rows), attribute.Int("import.imported", n))
	s.record(ctx, res)
	return res, nil
}

// ImportCustomers upserts the customers of file
func (s *Service) ImportCustomers(ctx context.Context, file Upload) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.customers", attribute.String("file.name", file.Name))
	defer span.End()

	if err := checkUpload(file); err != nil {
		return nil, rejected(KindCustomers, err)
	}
	items, skipped, err := ParseCustomers(file.Data)
	if err != nil {
		return nil, rejected(KindCustomers, common.NewBadRequestError("invalid customers workbook: "+err.Error(), err))
	}

	res := &Result{Kind: KindCustomers, FileName: file.Name, Rows: len(items) + len(skipped), Skipped: skipped}
	if len(items) > 0 {
		n, err := s.customers.UpsertCustomers(ctx, items)
		if err != nil {
			tracing.RecordError(span, err)
			importsTotal.WithLabelValues(string(KindCustomers), "failed").Inc()
			return nil, common.NewInternalError("failed to import customers", err)
		}
		res.Imported = n
	}
	res.ImportedAt = s.now()
	res.ArchiveKey = s.archiveFile(ctx, KindCustomers, file)

	span.SetAttributes(attribute.Int("import.rows", res.Rows), attribute.Int("import.imported", res.Imported))
	s.record(ctx, res)
	return res, nil
}

// rejected counts a refused upload and passes its error through
func rejected(kind Kind, err error) error {
	importsTotal.WithLabelValues(string(kind), "rejected").Inc()
	return err
}

// archiveFile keeps a copy of an imported workbook. Failures only log.
func (s *Service) archiveFile(ctx context.Context, kind Kind, file Upload) string {
	if s.archive == nil {
		return ""
	}
	key := storage.GenerateImportKey(s.prefix, string(kind), file.Name, s.now())
	_, err := s.archive.Upload(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)),
		storage.GetMimeTypeFromExtension(file.Name))
	if err != nil {
		logger.WithContext(ctx).Warn("failed to archive imported workbook",
			zap.String("kind", string(kind)),
			zap.String("file", file.Name),
			zap.Error(err),
		)
		return ""
	}
	return key
}

func (s *Service) record(ctx context.Context, res *Result) {
	importsTotal.WithLabelValues(string(res.Kind), "ok").Inc()
	importedRows.WithLabelValues(string(res.Kind)).Add(float64(res.Imported))
	skippedRows.WithLabelValues(string(res.Kind)).Add(float64(len(res.Skipped)))

	logger.WithContext(ctx).Info("workbook imported",
		zap.String("kind", string(res.Kind)),
		zap.String("file", res.FileName),
		zap.Int("rows", res.Rows),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("customer_codes_filled", res.CustomerCodesFilled),
		zap.String("archive_key", res.ArchiveKey),
	)
}
