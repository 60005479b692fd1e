// Package ofx imports OFX/QFX bank and credit card statements as cashflow records.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"

	"github.com/Veraticus/findash/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)

	importNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("findash/ofx-records"))
)

// Statement is one account's transactions from a statement file.
type Statement struct {
	AccountID     string
	Currency      string
	Records       []model.CashflowRecord
	LedgerBalance float64
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of a bare opening tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file into one Statement per account.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var statements []Statement

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			statements = append(statements, p.statement(
				string(stmt.BankAcctFrom.AcctID), stmt.CurDef.String(), stmt.BankTranList, &stmt.BalAmt.Rat))
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			statements = append(statements, p.statement(
				string(stmt.CCAcctFrom.AcctID), stmt.CurDef.String(), stmt.BankTranList, &stmt.BalAmt.Rat))
		}
	}

	total := 0
	for _, s := range statements {
		total += len(s.Records)
	}
	slog.Info("Parsed OFX file",
		"statements", len(statements),
		"records", total)

	return statements, nil
}

func (p *Parser) statement(accountID, cur string, list *ofxgo.TransactionList, balance *big.Rat) Statement {
	s := Statement{AccountID: accountID, Currency: cur}
	if balance != nil {
		s.LedgerBalance, _ = balance.Float64()
	}
	if list == nil {
		return s
	}
	for _, tx := range list.Transactions {
		s.Records = append(s.Records, p.convertTransaction(tx, accountID))
	}
	return s
}

// convertTransaction turns an OFX transaction into a record. Debits stay
// negative so the sign matches the record's expense convention.
func (p *Parser) convertTransaction(tx ofxgo.Transaction, accountID string) model.CashflowRecord {
	amount, _ := tx.TrnAmt.Float64()

	return model.CashflowRecord{
		ID:       RecordID(accountID, string(tx.FiTID)),
		Amount:   amount,
		Category: categoryFor(tx.TrnType.String(), amount),
		Note:     p.extractMerchantName(tx),
		Date:     tx.DtPosted.Time,
	}
}

// RecordID derives a stable record ID from the bank's transaction ID so a
// statement imported twice yields the same documents.
func RecordID(accountID, fitID string) string {
	return uuid.NewSHA1(importNamespace, []byte(accountID+"/"+fitID)).String()
}

func categoryFor(trnType string, amount float64) string {
	switch trnType {
	case "INT", "DIV":
		return "Interest"
	case "FEE", "SRVCHG":
		return "Bank Fees"
	case "ATM", "CASH":
		return "Cash & ATM"
	}
	if amount > 0 {
		return "Income"
	}
	return "Uncategorized"
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " date.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
