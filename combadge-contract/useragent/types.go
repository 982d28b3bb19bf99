// Copyright (c) 2020 Palantir Technologies. All rights reserved.
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

// Package useragent builds User-Agent header values out of name/version products.
package useragent

import (
	"fmt"
	"regexp"
	"strings"

	werror "github.com/palantir/witchcraft-go-error"
)

/*
User-Agent        = commented-product *( WHITESPACE commented-product )
commented-product = product | product WHITESPACE paren-comments
product           = name "/" version
paren-comments    = "(" comments ")"
comments          = comment-text *( delim comment-text )
delim             = "," | ";"

comment-text      = [^,;()]+
name              = [a-zA-Z][a-zA-Z0-9\-]*
version           = [0-9]+(\.[0-9]+)*(-rc[0-9]+)?(-[0-9]+-g[a-f0-9]+)?
*/

var (
	namePattern    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9\-]*$`)
	versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*(-rc[0-9]+)?(-[0-9]+-g[a-f0-9]+)?$`)
	commentPattern = regexp.MustCompile(`^[^,;()]+$`)
)

// Product is a single name/version component of a User-Agent.
type Product struct {
	name     string
	version  string
	comments []string
}

// NewProduct validates and returns a Product.
func NewProduct(name, version string, comments ...string) (Product, error) {
	if !namePattern.MatchString(name) {
		return Product{}, werror.Error("product name is not valid for User-Agent",
			werror.SafeParam("name", name),
			werror.SafeParam("namePattern", namePattern.String()))
	}
	if !versionPattern.MatchString(version) {
		return Product{}, werror.Error("product version is not valid for User-Agent",
			werror.SafeParam("version", version),
			werror.SafeParam("versionPattern", versionPattern.String()))
	}
	for _, comment := range comments {
		if !commentPattern.MatchString(comment) {
			return Product{}, werror.Error("product comment is not valid for User-Agent",
				werror.SafeParam("comment", comment),
				werror.SafeParam("commentPattern", commentPattern.String()))
		}
	}
	return Product{name: name, version: version, comments: comments}, nil
}

// Name returns the product name.
func (p Product) Name() string {
	return p.name
}

func (p Product) String() string {
	str := p.name + "/" + p.version
	if len(p.comments) > 0 {
		str = fmt.Sprintf("%s (%s)", str, strings.Join(p.comments, ", "))
	}
	return str
}

// Builder is a stack of products rendered into a User-Agent.
type Builder struct {
	products []Product
}

// Push adds products to the top of the stack.
func (b *Builder) Push(product ...Product) *Builder {
	b.products = append(b.products, product...)
	return b
}

// String renders the products in LIFO order, so the last product pushed comes first.
func (b *Builder) String() string {
	strs := make([]string, 0, len(b.products))
	for i := len(b.products) - 1; i >= 0; i-- {
		strs = append(strs, b.products[i].String())
	}
	return strings.Join(strs, " ")
}

// Clone returns a copy of the stack which can be modified independently.
func (b *Builder) Clone() *Builder {
	stack := Builder{products: make([]Product, len(b.products))}
	copy(stack.products, b.products)
	return &stack
}

// ForService returns the User-Agent for calls made on behalf of the named service.
// An invalid service name or version leaves the stack unchanged.
func ForService(name, version string) string {
	b := Default()
	if name != "" {
		if version == "" {
			version = unknownVersion
		}
		if p, err := NewProduct(name, version); err == nil {
			b.Push(p)
		}
	}
	return b.String()
}
