// Package install locates game client installations and their accounts.
//
// The client keeps per-account addon data under
//
//	<install>/<_version_>/WTF/Account/<ACCOUNT>/SavedVariables
//
// Classify accepts a path at any level of that tree and normalizes it to
// the account container (WTF/Account). Detection is structural: no client
// executable needs to be present, so copies on backup drives and network
// shares classify the same as live installations.
//
// Scanner walks a set of search roots with bounded depth and collects
// every installation it can classify. GetAccounts lists the accounts of an
// installation.
package install
