// Command flexdb is a command line client for FlexDB.
package main

func main() {
	Execute()
}
