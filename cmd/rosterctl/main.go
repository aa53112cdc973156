// Command rosterctl imports and exports clinic patient rosters from the
// command line, using the same configuration as the server.
package main

func main() {
	execute()
}
