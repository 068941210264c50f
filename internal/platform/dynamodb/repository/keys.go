package repository

import (
	"fmt"
	"time"
)

// Single-table layout:
//
//	import source   PK=SOURCES                SK=SOURCE#<sourceId>
//	rule            PK=SOURCE#<sourceId>      SK=RULE#<ruleId>
//	raw transaction PK=SOURCE#<sourceId>      SK=RAW#<transactionNo>
//	                GSI1PK=UNMATCHED          GSI1SK=<sourceId>#<time>#<transactionNo>  (removed on link)
//	account         PK=ACCOUNTS               SK=ACCOUNT#<path>
//	transaction     PK=TRANSACTION#<id>       SK=TRANSACTION
//	posting         PK=POSTINGS#<path>        SK=POSTING#<postingId>
const (
	sourcesPK      = "SOURCES"
	accountsPK     = "ACCOUNTS"
	unmatchedPK    = "UNMATCHED"
	transactionSK  = "TRANSACTION"
	gsi1IndexName  = "GSI1"
	rulePrefix     = "RULE#"
	rawPrefix      = "RAW#"
	accountPrefix  = "ACCOUNT#"
	postingPrefix  = "POSTING#"
	sourcePrefix   = "SOURCE#"
	itemTypeSource = "import_source"
	itemTypeRule   = "import_rule"
	itemTypeRaw    = "raw_transaction"
	itemTypeAcct   = "account"
	itemTypeTx     = "transaction"
	itemTypePost   = "posting"
)

func sourceSK(sourceID string) string {
	return sourcePrefix + sourceID
}

func sourcePK(sourceID string) string {
	return sourcePrefix + sourceID
}

func ruleSK(ruleID string) string {
	return rulePrefix + ruleID
}

func rawSK(transactionNo string) string {
	return rawPrefix + transactionNo
}

func unmatchedSK(sourceID string, transactionTime time.Time, transactionNo string) string {
	return fmt.Sprintf("%s#%s#%s", sourceID, transactionTime.UTC().Format(time.RFC3339), transactionNo)
}

func accountSK(path string) string {
	return accountPrefix + path
}

func transactionPK(transactionID string) string {
	return "TRANSACTION#" + transactionID
}

func postingsPK(accountPath string) string {
	return "POSTINGS#" + accountPath
}

func postingSK(postingID string) string {
	return postingPrefix + postingID
}
