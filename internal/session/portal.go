package session

// Portal is one entry of a session's portal table, created by Bind and
// driven by one or more Execute messages. Portal.Suspended holds the
// in-flight *sql.Rows cursor (typed as any here to avoid an
// executor->session import cycle; the executor type-asserts it back)
// across a PortalSuspended boundary, discarded on Close or transaction
// end (spec §4.F "Partial execution").
type Portal struct {
	Name          string
	Stmt          *PreparedStatement
	Params        [][]byte
	ParamFormats  []int16
	ResultFormats []int16
	Suspended     any
	RowsReturned  int64
}

func (p *Portal) Empty() bool { return p.Name == "" }

// ResultFormatFor returns the format code for column i, falling back
// to text (0) when the client supplied either no format codes (use
// text for every column) or exactly one (use it for every column),
// matching the Bind message's format-code-count rules.
func (p *Portal) ResultFormatFor(i int) int16 {
	switch len(p.ResultFormats) {
	case 0:
		return 0
	case 1:
		return p.ResultFormats[0]
	default:
		if i < len(p.ResultFormats) {
			return p.ResultFormats[i]
		}
		return 0
	}
}
