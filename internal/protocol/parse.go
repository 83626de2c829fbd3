package protocol

import (
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// This file is build.go's mirror for the other direction: where
// build.go turns Go values into framed backend messages, the functions
// here turn a frontend message's already-framed body (as ReadMessage
// hands back) into typed Go values, the server-side counterpart to how
// lib-pq's own readBuf is walked field-by-field for each backend
// message it receives.

// QueryMessage is a simple-query 'Q' message: one SQL string, possibly
// several statements separated by ';' (spec §4.F).
type QueryMessage struct {
	SQL string
}

func ParseQuery(body readBuf) (QueryMessage, error) {
	b := &body
	s, err := b.string()
	if err != nil {
		return QueryMessage{}, err
	}
	return QueryMessage{SQL: s}, nil
}

// PasswordMessage is the 'p' response to an authentication request.
type PasswordMessage struct {
	Password string
}

func ParsePasswordMessage(body readBuf) (PasswordMessage, error) {
	b := &body
	s, err := b.string()
	if err != nil {
		return PasswordMessage{}, err
	}
	return PasswordMessage{Password: s}, nil
}

// ParseMessage is a 'P' Parse message: names a prepared statement,
// supplies its SQL text, and the client's declared parameter OIDs
// (spec §4.F; a zero OID means "let the server infer").
type ParseMessage struct {
	Name      string
	Query     string
	ParamOIDs []oid.Oid
}

func ParseParse(body readBuf) (ParseMessage, error) {
	b := &body
	name, err := b.string()
	if err != nil {
		return ParseMessage{}, err
	}
	query, err := b.string()
	if err != nil {
		return ParseMessage{}, err
	}
	n := b.int16()
	oids := make([]oid.Oid, n)
	for i := range oids {
		oids[i] = b.oid()
	}
	return ParseMessage{Name: name, Query: query, ParamOIDs: oids}, nil
}

// BindMessage is a 'B' Bind message: names the portal and the
// statement it's bound from, the raw (still wire-encoded) parameter
// values, and the format codes governing both parameters and results
// (spec §4.F/§5.3). A nil entry in Params means SQL NULL (the wire
// carried a length of -1).
type BindMessage struct {
	Portal        string
	Statement     string
	ParamFormats  []int16
	Params        [][]byte
	ResultFormats []int16
}

func ParseBind(body readBuf) (BindMessage, error) {
	b := &body
	portal, err := b.string()
	if err != nil {
		return BindMessage{}, err
	}
	stmt, err := b.string()
	if err != nil {
		return BindMessage{}, err
	}

	nFormats := b.int16()
	formats := make([]int16, nFormats)
	for i := range formats {
		formats[i] = int16(b.int16())
	}

	nParams := b.int16()
	params := make([][]byte, nParams)
	for i := range params {
		n := b.int32()
		if n < 0 {
			continue
		}
		v, err := b.next(int(n))
		if err != nil {
			return BindMessage{}, err
		}
		params[i] = v
	}

	nResultFormats := b.int16()
	resultFormats := make([]int16, nResultFormats)
	for i := range resultFormats {
		resultFormats[i] = int16(b.int16())
	}

	return BindMessage{
		Portal:        portal,
		Statement:     stmt,
		ParamFormats:  formats,
		Params:        params,
		ResultFormats: resultFormats,
	}, nil
}

// ExecuteMessage is an 'E' Execute message: the portal to run and the
// row-count cap for partial execution (0 means "no limit", spec §4.F).
type ExecuteMessage struct {
	Portal  string
	MaxRows int32
}

func ParseExecute(body readBuf) (ExecuteMessage, error) {
	b := &body
	portal, err := b.string()
	if err != nil {
		return ExecuteMessage{}, err
	}
	return ExecuteMessage{Portal: portal, MaxRows: b.int32()}, nil
}

// DescribeMessage and CloseMessage are 'D'/'C' messages naming either a
// prepared statement (Target == TargetStatementS) or a portal
// (Target == TargetPortalP).
type DescribeMessage struct {
	Target byte
	Name   string
}

func ParseDescribe(body readBuf) (DescribeMessage, error) {
	b := &body
	target := b.byte()
	name, err := b.string()
	if err != nil {
		return DescribeMessage{}, err
	}
	return DescribeMessage{Target: target, Name: name}, nil
}

type CloseMessage struct {
	Target byte
	Name   string
}

func ParseClose(body readBuf) (CloseMessage, error) {
	b := &body
	target := b.byte()
	name, err := b.string()
	if err != nil {
		return CloseMessage{}, err
	}
	return CloseMessage{Target: target, Name: name}, nil
}
