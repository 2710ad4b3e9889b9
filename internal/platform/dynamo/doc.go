// Package dynamo implements the store interfaces on a single DynamoDB table.
//
// Layout: every record of a user lives in partition "USER#<userID>". Items use
// sort key "ITEM#<itemID>"; review events use "EVENT#<timestamp>#<eventID>"
// with a fixed-width UTC timestamp so the sort key orders events in time. A
// review write is one TransactWriteItems call that puts the item under a
// version condition and puts the event under an attribute_not_exists guard.
package dynamo
