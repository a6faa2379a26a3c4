// Copyright 2025 go-hlsdense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command densec compiles dense layer descriptions into streaming kernel
// plans and runs them.
//
// Usage:
//
//	densec plan -i fc1.json                         # resource plan summary
//	densec emit -i fc1.json -o fc1_config.h         # C++ layer config
//	densec emit -i fc1.json --format json           # structural description
//	densec run -i fc1.json --inputs samples.json    # stream samples through the kernel
//
// Or via go:generate:
//
//	//go:generate densec emit -i fc1.json -o fc1_config.h
//
// The layer file is JSON holding the shape, reuse factor, io type,
// precision strings and float weights and biases; see hls.LoadLayer.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
