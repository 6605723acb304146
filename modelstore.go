package hibag

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

// ModelFormatVersion is written to the Metadata table of every model store.
const ModelFormatVersion = "1"

const modelSchema = `
CREATE TABLE Metadata (
	version TEXT NOT NULL,
	num_marker INTEGER NOT NULL,
	num_sample INTEGER NOT NULL,
	num_class INTEGER NOT NULL,
	compression INTEGER NOT NULL,
	creation_time INTEGER NOT NULL
);
CREATE TABLE Class (
	class_index INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE Marker (
	marker_index INTEGER PRIMARY KEY,
	chromosome TEXT NOT NULL,
	position INTEGER NOT NULL,
	rsid TEXT NOT NULL,
	allele1 TEXT NOT NULL,
	allele2 TEXT NOT NULL
);
CREATE TABLE Classifier (
	classifier_index INTEGER PRIMARY KEY,
	accuracy REAL NOT NULL,
	weights BLOB
);
CREATE TABLE ClassifierMarker (
	classifier_index INTEGER NOT NULL,
	position INTEGER NOT NULL,
	marker_index INTEGER NOT NULL,
	PRIMARY KEY (classifier_index, position)
);
CREATE TABLE Haplotype (
	classifier_index INTEGER NOT NULL,
	haplotype_index INTEGER NOT NULL,
	class_index INTEGER NOT NULL,
	alleles TEXT NOT NULL,
	frequency REAL NOT NULL,
	PRIMARY KEY (classifier_index, haplotype_index)
);
`

// ModelDB is a SQLite file holding one model.
type ModelDB struct {
	DB       *sqlx.DB
	Metadata *ModelMetadata
}

func (d *ModelDB) Close() error {
	return d.DB.Close()
}

// ModelMetadata conforms to the single row of the "Metadata" table.
type ModelMetadata struct {
	Version      string      `db:"version"`
	NumMarker    int         `db:"num_marker"`
	NumSample    int         `db:"num_sample"`
	NumClass     int         `db:"num_class"`
	Compression  Compression `db:"compression"`
	CreationTime Time        `db:"creation_time"`
}

// MarkerRow conforms to the rows of the "Marker" table.
type MarkerRow struct {
	MarkerIndex int    `db:"marker_index"`
	Chromosome  string `db:"chromosome"`
	Position    uint32 `db:"position"`
	RSID        string `db:"rsid"`
	Allele1     string `db:"allele1"`
	Allele2     string `db:"allele2"`
}

type classRow struct {
	ClassIndex int    `db:"class_index"`
	Name       string `db:"name"`
}

type classifierRow struct {
	ClassifierIndex int     `db:"classifier_index"`
	Accuracy        float64 `db:"accuracy"`
	Weights         []byte  `db:"weights"`
}

type classifierMarkerRow struct {
	ClassifierIndex int `db:"classifier_index"`
	Position        int `db:"position"`
	MarkerIndex     int `db:"marker_index"`
}

type haplotypeRow struct {
	ClassifierIndex int     `db:"classifier_index"`
	HaplotypeIndex  int     `db:"haplotype_index"`
	ClassIndex      int     `db:"class_index"`
	Alleles         string  `db:"alleles"`
	Frequency       float64 `db:"frequency"`
}

// URI filenames have to begin with 'file:'; see
// https://www.sqlite.org/c3ref/open.html . It seems that sqlite3 permitted
// URI filenames without the file: prefix, but that is not standard.
func sqliteURI(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path
}

// CreateModelDB creates a new, empty model store at path.
func CreateModelDB(path string) (*ModelDB, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, pfx.Err(fmt.Errorf("%w: %s already exists", ErrInvalidArgument, path))
	}

	db, err := connectModelDB(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if _, err := db.Exec(modelSchema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return &ModelDB{DB: db, Metadata: &ModelMetadata{}}, nil
}

// OpenModelDB opens an existing model store and reads its metadata.
func OpenModelDB(path string) (*ModelDB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, pfx.Err(err)
	}

	db, err := connectModelDB(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	d := &ModelDB{DB: db, Metadata: &ModelMetadata{}}

	if err := d.DB.Get(d.Metadata, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		db.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	if d.Metadata.Version != ModelFormatVersion {
		db.Close()
		return nil, pfx.Err(fmt.Errorf("%s: model format version %q, expected %q", path, d.Metadata.Version, ModelFormatVersion))
	}

	return d, nil
}

// SaveModel writes m in a single transaction, compressing the bootstrap
// weights with c.
func (d *ModelDB) SaveModel(m *Model, c Compression) error {
	tx, err := d.DB.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	md := ModelMetadata{
		Version:      ModelFormatVersion,
		NumMarker:    m.NumMarker,
		NumSample:    m.NumSample,
		NumClass:     m.NumClass,
		Compression:  c,
		CreationTime: Time(time.Now()),
	}
	if _, err := tx.NamedExec(`INSERT INTO Metadata VALUES (:version, :num_marker, :num_sample, :num_class, :compression, :creation_time)`, &md); err != nil {
		return pfx.Err(err)
	}

	for i, name := range m.ClassNames {
		if _, err := tx.Exec(`INSERT INTO Class VALUES (?, ?)`, i, name); err != nil {
			return pfx.Err(err)
		}
	}

	for i, mk := range m.Markers {
		row := MarkerRow{
			MarkerIndex: i,
			Chromosome:  mk.Chromosome,
			Position:    mk.Coordinate,
			RSID:        mk.VariantID,
			Allele1:     mk.Allele1,
			Allele2:     mk.Allele2,
		}
		if _, err := tx.NamedExec(`INSERT INTO Marker VALUES (:marker_index, :chromosome, :position, :rsid, :allele1, :allele2)`, &row); err != nil {
			return pfx.Err(err)
		}
	}

	for i, ct := range m.Export() {
		blob, err := encodeWeights(ct.Weights, c)
		if err != nil {
			return pfx.Err(err)
		}
		if _, err := tx.Exec(`INSERT INTO Classifier VALUES (?, ?, ?)`, i, ct.Accuracy, blob); err != nil {
			return pfx.Err(err)
		}
		for k, marker := range ct.Markers {
			if _, err := tx.Exec(`INSERT INTO ClassifierMarker VALUES (?, ?, ?)`, i, k, marker); err != nil {
				return pfx.Err(err)
			}
		}
		for k, h := range ct.Haplotypes {
			if _, err := tx.Exec(`INSERT INTO Haplotype VALUES (?, ?, ?, ?, ?)`, i, k, h.Class, h.Bits, h.Freq); err != nil {
				return pfx.Err(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}
	*d.Metadata = md

	return nil
}

// LoadModel reads the model held by the store.
func (d *ModelDB) LoadModel() (*Model, error) {
	md := d.Metadata

	var classifiers []classifierRow
	if err := d.DB.Select(&classifiers, "SELECT * FROM Classifier ORDER BY classifier_index ASC"); err != nil {
		return nil, pfx.Err(err)
	}
	cls := make([]ClassifierTransfer, len(classifiers))
	for i, row := range classifiers {
		if row.ClassifierIndex != i {
			return nil, pfx.Err(fmt.Errorf("classifier index %d found at position %d", row.ClassifierIndex, i))
		}
		w, err := decodeWeights(row.Weights, md.Compression)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("classifier %d: %w", i, err))
		}
		cls[i] = ClassifierTransfer{Weights: w, Accuracy: row.Accuracy}
	}

	rows, err := d.DB.Queryx("SELECT * FROM ClassifierMarker ORDER BY classifier_index ASC, position ASC")
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rows.Close()
	var cm classifierMarkerRow
	for rows.Next() {
		if err := rows.StructScan(&cm); err != nil {
			return nil, pfx.Err(err)
		}
		if cm.ClassifierIndex < 0 || cm.ClassifierIndex >= len(cls) {
			return nil, pfx.Err(fmt.Errorf("marker row refers to classifier %d of %d", cm.ClassifierIndex, len(cls)))
		}
		cls[cm.ClassifierIndex].Markers = append(cls[cm.ClassifierIndex].Markers, cm.MarkerIndex)
	}
	if err := rows.Err(); err != nil {
		return nil, pfx.Err(err)
	}
	rows.Close()

	hrows, err := d.DB.Queryx("SELECT * FROM Haplotype ORDER BY classifier_index ASC, haplotype_index ASC")
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer hrows.Close()
	var h haplotypeRow
	for hrows.Next() {
		if err := hrows.StructScan(&h); err != nil {
			return nil, pfx.Err(err)
		}
		if h.ClassifierIndex < 0 || h.ClassifierIndex >= len(cls) {
			return nil, pfx.Err(fmt.Errorf("haplotype row refers to classifier %d of %d", h.ClassifierIndex, len(cls)))
		}
		cls[h.ClassifierIndex].Haplotypes = append(cls[h.ClassifierIndex].Haplotypes, HaplotypeTransfer{
			Class: h.ClassIndex,
			Bits:  h.Alleles,
			Freq:  h.Frequency,
		})
	}
	if err := hrows.Err(); err != nil {
		return nil, pfx.Err(err)
	}
	hrows.Close()

	m, err := ImportModel(md.NumMarker, md.NumClass, cls)
	if err != nil {
		return nil, err
	}
	m.NumSample = md.NumSample

	var classes []classRow
	if err := d.DB.Select(&classes, "SELECT * FROM Class ORDER BY class_index ASC"); err != nil {
		return nil, pfx.Err(err)
	}
	if len(classes) > 0 {
		if len(classes) != md.NumClass {
			return nil, pfx.Err(fmt.Errorf("%d class names for %d classes", len(classes), md.NumClass))
		}
		for _, c := range classes {
			m.ClassNames = append(m.ClassNames, c.Name)
		}
	}

	var markers []MarkerRow
	if err := d.DB.Select(&markers, "SELECT * FROM Marker ORDER BY marker_index ASC"); err != nil {
		return nil, pfx.Err(err)
	}
	if len(markers) > 0 {
		if len(markers) != md.NumMarker {
			return nil, pfx.Err(fmt.Errorf("%d marker rows for %d markers", len(markers), md.NumMarker))
		}
		for _, row := range markers {
			var mk Marker
			mk.Chromosome = row.Chromosome
			mk.Coordinate = row.Position
			mk.VariantID = row.RSID
			mk.Allele1 = row.Allele1
			mk.Allele2 = row.Allele2
			m.Markers = append(m.Markers, mk)
		}
	}

	return m, nil
}

// SaveModelFile writes m to a new model store at path.
func SaveModelFile(path string, m *Model, c Compression) error {
	d, err := CreateModelDB(path)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.SaveModel(m, c)
}

// LoadModelFile reads the model store at path.
func LoadModelFile(path string) (*Model, error) {
	d, err := OpenModelDB(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	return d.LoadModel()
}
