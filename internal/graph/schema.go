package graph

// Field names are snake_case to match the REST DTOs.
const schemaString = `
schema {
  query: Query
  mutation: Mutation
}

scalar Date

type Author {
  id: Int!
  first_name: String!
  last_name: String!
  email: String
  birthdate: Date
  added: Date
  posts: [Post]
}

type Post {
  id: Int!
  title: String!
  author_id: Int!
  description: String
  content: String
  date: Date
  author: Author
}

type Authors {
  list: [Author]!
  count: Int!
}

type Posts {
  list: [Post]!
  count: Int!
}

type User {
  id: Int!
  username: String!
  email: String!
  created_at: Date
}

type AuthPayload {
  user: User!
  token: String!
  accessToken: String!
}

input CreateAuthorInput {
  first_name: String!
  last_name: String!
  email: String!
  birthdate: Date!
}

input UpdateAuthorInput {
  first_name: String
  last_name: String
  email: String
  birthdate: Date
}

input CreatePostInput {
  title: String!
  author_id: Int!
  description: String
  content: String
}

input UpdatePostInput {
  title: String
  author_id: Int
  description: String
  content: String
}

input RegisterInput {
  username: String!
  email: String!
  password: String!
}

input LoginInput {
  email: String!
  password: String!
}

type Query {
  authors(limit: Int = 20, offset: Int = 0, id: Int): Authors!
  author(id: Int!): Author
  posts(limit: Int = 20, offset: Int = 0, id: Int): Posts!
  post(id: Int!): Post
  me: User
}

type Mutation {
  createAuthor(input: CreateAuthorInput!): Author!
  updateAuthor(id: Int!, input: UpdateAuthorInput!): Author!
  deleteAuthor(id: Int!): Boolean!

  createPost(input: CreatePostInput!): Post!
  updatePost(id: Int!, input: UpdatePostInput!): Post!
  deletePost(id: Int!): Boolean!

  register(input: RegisterInput!): AuthPayload!
  login(input: LoginInput!): AuthPayload!
}
`
