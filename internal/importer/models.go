package importer

import "time"

// Kind names the dataset a workbook feeds
type Kind string

const (
	KindQuotes    Kind = "quotes"
	KindCustomers Kind = "customers"
)

// Quote workbook columns
const (
	colQuoteCode     = "Cod. Presupuesto"
	colCustomerCode  = "Código"
	colCustomerName  = "Cliente"
	colStatus        = "Estado presupuesto"
	colCreatedAt     = "Fecha alta"
	colServiceDate   = "Fecha Salida"
	colAmount        = "Total importe"
	colAgent         = "Atendido por"
	colServiceType   = "Tipo Servicio"
	colCustomerGroup = "Grupo de clientes"
	colContactMethod = "Forma de contacto"
	colSource        = "Conocido por?"
	colEmail         = "E-mail"
	colPhone         = "Teléfono"
	colMobile        = "Móvil"
)

// Quote to customer map workbook columns
const (
	colMapQuoteCode    = "Código presupuesto"
	colMapCustomerCode = "Código cliente"
)

// Customer workbook columns
const (
	colCode     = "Código"
	colName     = "Nombre"
	colTaxID    = "NIF"
	colCity     = "Población"
	colProvince = "Provincia"
	colCountry  = "Pais"
	colMail     = "Mail"
	colGroup    = "Grupo cliente"
)

// Upload is a workbook received from a client or read from disk
type Upload struct {
	Name string
	Data []byte
}

// SkippedRow is a data row that could not be imported. Row is the
// spreadsheet row number, header included.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result reports what an import did
type Result struct {
	Kind                Kind         `json:"kind"`
	FileName            string       `json:"file_name"`
	Rows                int          `json:"rows"`
	Imported            int          `json:"imported"`
	Skipped             []SkippedRow `json:"skipped"`
	CustomerCodesFilled int          `json:"customer_codes_filled,omitempty"`
	ArchiveKey          string       `json:"archive_key,omitempty"`
	ImportedAt          time.Time    `json:"imported_at"`
}
