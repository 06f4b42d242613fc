package catalog

import (
	"fmt"

	"github.com/apache/iceberg-go"
	"github.com/apache/iceberg-go/table"
)

// FormatVersion is the table format version written for new tables
const FormatVersion = table.DefaultFormatVersion

// NewTableMetadata builds the first metadata document of a table. Column,
// partition field and sort order ids are reassigned, so requests may use
// any ids that are consistent within the request.
func NewTableMetadata(schema *iceberg.Schema, location string, opts CreateTableOptions) (table.Metadata, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrInvalidArgument)
	}
	if location == "" {
		return nil, fmt.Errorf("%w: table location is required", ErrInvalidArgument)
	}

	spec := iceberg.UnpartitionedSpec
	if opts.PartitionSpec != nil {
		if err := validatePartitionSpec(schema, opts.PartitionSpec); err != nil {
			return nil, err
		}
		spec = opts.PartitionSpec
	}

	order := table.UnsortedSortOrder
	if opts.SortOrder != nil {
		var err error
		if order, err = normalizeSortOrder(schema, *opts.SortOrder); err != nil {
			return nil, err
		}
	}

	// NewMetadata consumes format-version from the properties it is given
	metadata, err := table.NewMetadata(schema, spec, order, location, CloneProperties(opts.Properties))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return metadata, nil
}

// ParseTableMetadata decodes and validates a metadata file
func ParseTableMetadata(data []byte) (table.Metadata, error) {
	return table.ParseMetadataBytes(data)
}

func validatePartitionSpec(schema *iceberg.Schema, spec *iceberg.PartitionSpec) error {
	names := make(map[string]struct{}, spec.NumFields())
	for field := range spec.Fields() {
		if field.Name == "" {
			return fmt.Errorf("%w: partition field on column %d has no name", ErrInvalidArgument, field.SourceID)
		}
		if _, dup := names[field.Name]; dup {
			return fmt.Errorf("%w: duplicate partition field %q", ErrInvalidArgument, field.Name)
		}
		names[field.Name] = struct{}{}

		if err := checkTransform(schema, field.SourceID, field.Transform); err != nil {
			return fmt.Errorf("partition field %q: %w", field.Name, err)
		}
	}
	return nil
}

// normalizeSortOrder validates order and returns a copy with the default
// direction (ascending) and null order filled in.
func normalizeSortOrder(schema *iceberg.Schema, order table.SortOrder) (table.SortOrder, error) {
	fields := make([]table.SortField, 0, len(order.Fields))
	for _, field := range order.Fields {
		if err := checkTransform(schema, field.SourceID, field.Transform); err != nil {
			return table.SortOrder{}, fmt.Errorf("sort field: %w", err)
		}
		switch field.Direction {
		case "":
			field.Direction = table.SortASC
		case table.SortASC, table.SortDESC:
		default:
			return table.SortOrder{}, fmt.Errorf("%w: %v", ErrInvalidArgument, table.ErrInvalidSortDirection)
		}
		switch field.NullOrder {
		case "":
			field.NullOrder = table.NullsFirst
			if field.Direction == table.SortDESC {
				field.NullOrder = table.NullsLast
			}
		case table.NullsFirst, table.NullsLast:
		default:
			return table.SortOrder{}, fmt.Errorf("%w: %v", ErrInvalidArgument, table.ErrInvalidNullOrder)
		}
		fields = append(fields, field)
	}
	return table.SortOrder{OrderID: order.OrderID, Fields: fields}, nil
}

// checkTransform rejects transforms that cannot apply to the source column
func checkTransform(schema *iceberg.Schema, sourceID int, transform iceberg.Transform) error {
	source, ok := schema.FindFieldByID(sourceID)
	if !ok {
		return fmt.Errorf("%w: unknown source column %d", ErrInvalidArgument, sourceID)
	}
	if transform == nil {
		return fmt.Errorf("%w: transform is required", ErrInvalidArgument)
	}
	if _, ok := source.Type.(iceberg.PrimitiveType); !ok {
		return fmt.Errorf("%w: column %q is not a primitive type", ErrInvalidArgument, source.Name)
	}
	if !canTransform(transform, source.Type) {
		return fmt.Errorf("%w: transform %s does not apply to %s column %q", ErrInvalidArgument, transform, source.Type, source.Name)
	}
	return nil
}

func canTransform(transform iceberg.Transform, typ iceberg.Type) bool {
	switch t := transform.(type) {
	case iceberg.IdentityTransform, iceberg.VoidTransform:
		return true
	case iceberg.BucketTransform:
		if t.NumBuckets <= 0 {
			return false
		}
		switch typ.(type) {
		case iceberg.Int32Type, iceberg.Int64Type, iceberg.DecimalType, iceberg.DateType,
			iceberg.TimeType, iceberg.TimestampType, iceberg.TimestampTzType,
			iceberg.StringType, iceberg.UUIDType, iceberg.FixedType, iceberg.BinaryType:
			return true
		}
	case iceberg.TruncateTransform:
		if t.Width <= 0 {
			return false
		}
		switch typ.(type) {
		case iceberg.Int32Type, iceberg.Int64Type, iceberg.DecimalType,
			iceberg.StringType, iceberg.BinaryType:
			return true
		}
	case iceberg.YearTransform, iceberg.MonthTransform, iceberg.DayTransform:
		switch typ.(type) {
		case iceberg.DateType, iceberg.TimestampType, iceberg.TimestampTzType:
			return true
		}
	case iceberg.HourTransform:
		switch typ.(type) {
		case iceberg.TimestampType, iceberg.TimestampTzType:
			return true
		}
	}
	return false
}
